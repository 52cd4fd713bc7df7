package sources

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/record"
)

var spacecraftHeaders = []string{
	"S.No.",
	"Name of Satellite",
	"Date of Launch",
	"Launch Vehicle/Mission",
	"Orbit",
	"Application",
	"Remarks",
}

// Spacecraft scrapes the paginated spacecraft missions table.
type Spacecraft struct {
	listing tableListing
}

// NewSpacecraftMissions returns the spacecraft_missions source.
func NewSpacecraftMissions(fetcher DocumentFetcher, cfg Config, logger *zap.Logger) *Spacecraft {
	return &Spacecraft{listing: tableListing{
		fetcher:  fetcher,
		logger:   logger.Named(SpacecraftMissions),
		cfg:      cfg.withDefaults(),
		page:     "SpacecraftMissions.html",
		expected: spacecraftHeaders,
	}}
}

// Name implements Source.
func (s *Spacecraft) Name() string { return SpacecraftMissions }

// Label implements Source.
func (s *Spacecraft) Label() string { return "spacecraft mission rows" }

// Scrape implements Source.
func (s *Spacecraft) Scrape(ctx context.Context) ([]record.Record, error) {
	res, err := s.listing.scrape(ctx)
	return NormalizeMissionRows(res.Rows), err
}
