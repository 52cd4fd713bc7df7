// Package sources holds one extractor per dataset scraped from the agency site.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/record"
)

// DefaultSiteRoot is the site every source path is resolved against.
const DefaultSiteRoot = "https://www.isro.gov.in"

// Dataset names, in run order.
const (
	SpacecraftMissions = "spacecraft_missions"
	LaunchMissions     = "launch_missions"
	TimelineLinks      = "timeline_links"
	UpcomingMissions   = "upcoming_missions"
	News               = "news"
	LaunchVehicleSpecs = "launch_vehicle_specs"
	MissionDetails     = "mission_details"
)

// ErrUnknownSource is returned when a dataset name is not registered.
var ErrUnknownSource = errors.New("unknown source")

// DocumentFetcher retrieves and parses a page.
type DocumentFetcher interface {
	Document(ctx context.Context, url string) (*goquery.Document, error)
}

// Source produces the records of one dataset.
type Source interface {
	Name() string
	// Label describes the records in the "Saved N <label>" summary.
	Label() string
	Scrape(ctx context.Context) ([]record.Record, error)
}

// Config tunes the extractors.
type Config struct {
	SiteRoot            string
	NewsLimit           int
	VehicleContentLimit int
	// LaunchTable reads launch_missions from the launch table instead of
	// collecting launch links.
	LaunchTable bool
}

func (c Config) withDefaults() Config {
	if c.SiteRoot == "" {
		c.SiteRoot = DefaultSiteRoot
	}
	c.SiteRoot = strings.TrimRight(c.SiteRoot, "/")
	if c.NewsLimit <= 0 {
		c.NewsLimit = defaultNewsLimit
	}
	if c.VehicleContentLimit <= 0 {
		c.VehicleContentLimit = defaultVehicleContentLimit
	}
	return c
}

func (c Config) url(path string) string {
	return c.SiteRoot + "/" + strings.TrimLeft(path, "/")
}

// Registry holds every source in run order.
type Registry struct {
	ordered []Source
	byName  map[string]Source
}

// NewRegistry builds all sources against fetcher.
func NewRegistry(fetcher DocumentFetcher, cfg Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return newRegistry(
		NewSpacecraftMissions(fetcher, cfg, logger),
		NewLaunchMissions(fetcher, cfg, logger),
		NewTimelineLinks(fetcher, cfg, logger),
		NewUpcomingMissions(fetcher, cfg, logger),
		NewNews(fetcher, cfg, logger),
		NewLaunchVehicleSpecs(fetcher, cfg, logger),
		NewMissionDetails(fetcher, cfg, logger),
	)
}

func newRegistry(all ...Source) *Registry {
	r := &Registry{byName: make(map[string]Source, len(all))}
	for _, s := range all {
		r.ordered = append(r.ordered, s)
		r.byName[s.Name()] = s
	}
	return r
}

// All returns the sources in run order.
func (r *Registry) All() []Source {
	return append([]Source(nil), r.ordered...)
}

// Names returns the dataset names in run order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, s := range r.ordered {
		names = append(names, s.Name())
	}
	return names
}

// Get looks up a source by dataset name.
func (r *Registry) Get(name string) (Source, error) {
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return s, nil
}
