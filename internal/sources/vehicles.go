package sources

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/parser"
	"github.com/JakeFAU/isro-crawler/internal/record"
)

const defaultVehicleContentLimit = 10000

// Vehicle is a launch vehicle page.
type Vehicle struct {
	Name string
	Page string
}

// Vehicles are scraped in this order.
var Vehicles = []Vehicle{
	{Name: "PSLV", Page: "PSLV_CON.html"},
	{Name: "GSLV", Page: "GSLV_CON.html"},
	{Name: "LVM3", Page: "LVM3.html"},
}

// VehicleSpecs captures the visible text of each launch vehicle page.
type VehicleSpecs struct {
	fetcher DocumentFetcher
	cfg     Config
	logger  *zap.Logger
}

// NewLaunchVehicleSpecs returns the launch_vehicle_specs source.
func NewLaunchVehicleSpecs(fetcher DocumentFetcher, cfg Config, logger *zap.Logger) *VehicleSpecs {
	return &VehicleSpecs{fetcher: fetcher, cfg: cfg.withDefaults(), logger: logger.Named(LaunchVehicleSpecs)}
}

// Name implements Source.
func (s *VehicleSpecs) Name() string { return LaunchVehicleSpecs }

// Label implements Source.
func (s *VehicleSpecs) Label() string { return "launch vehicle spec rows" }

// Scrape implements Source. A vehicle whose page cannot be fetched is
// skipped; its error is returned alongside the remaining records.
func (s *VehicleSpecs) Scrape(ctx context.Context) ([]record.Record, error) {
	var (
		out  []record.Record
		errs error
	)
	for _, v := range Vehicles {
		if ctx.Err() != nil {
			return out, multierr.Append(errs, ctx.Err())
		}
		url := s.cfg.url(v.Page)
		doc, err := s.fetcher.Document(ctx, url)
		if err != nil {
			s.logger.Warn("vehicle page skipped", zap.String("vehicle", v.Name), zap.String("url", url), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("fetch %s: %w", url, err))
			continue
		}
		content := truncateRunes(parser.Text(doc.Selection), s.cfg.VehicleContentLimit)
		out = append(out, record.New("vehicle", v.Name, "url", url, "content", content))
	}
	return out, errs
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
