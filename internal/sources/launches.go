package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/parser"
	"github.com/JakeFAU/isro-crawler/internal/record"
)

var launchHeaders = []string{
	"Sl No",
	"Name",
	"Launch Date",
	"Launcher Type",
	"Launch Vehicle/Mission",
	"Remarks",
}

var launchLinkCues = []string{"Launch", "Mission"}

// Launches scrapes the launch missions page. By default it collects launch
// and mission links; with Config.LaunchTable it reads the launch table and
// its numbered pages instead.
type Launches struct {
	listing tableListing
	table   bool
}

// NewLaunchMissions returns the launch_missions source.
func NewLaunchMissions(fetcher DocumentFetcher, cfg Config, logger *zap.Logger) *Launches {
	return &Launches{listing: tableListing{
		fetcher:  fetcher,
		logger:   logger.Named(LaunchMissions),
		cfg:      cfg.withDefaults(),
		page:     "LaunchMissions.html",
		expected: launchHeaders,
	}, table: cfg.LaunchTable}
}

// Name implements Source.
func (s *Launches) Name() string { return LaunchMissions }

// Label implements Source.
func (s *Launches) Label() string {
	if s.table {
		return "launch mission rows"
	}
	return "launch mission items"
}

// Scrape implements Source.
func (s *Launches) Scrape(ctx context.Context) ([]record.Record, error) {
	if s.table {
		return s.scrapeTable(ctx)
	}
	url := s.listing.cfg.url(s.listing.page)
	doc, err := s.listing.fetcher.Document(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	records := s.links(doc.Selection)
	s.listing.logger.Debug("launch links collected", zap.String("url", url), zap.Int("count", len(records)))
	return records, nil
}

// scrapeTable reads the launch table. A page without table rows falls back
// to the link scan.
func (s *Launches) scrapeTable(ctx context.Context) ([]record.Record, error) {
	res, err := s.listing.scrape(ctx)
	if res.Found || res.Base == nil {
		return NormalizeMissionRows(res.Rows), err
	}
	return s.links(res.Base.Selection), nil
}

func (s *Launches) links(doc *goquery.Selection) []record.Record {
	return linkRecords(doc, s.listing.cfg.SiteRoot, func(a parser.Anchor) bool {
		return a.Text != "" && containsAny(a.Href, launchLinkCues)
	})
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
