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

const defaultNewsLimit = 100

var upcomingLinkCues = []string{"Gaganyaan", "NISAR", "Mission", "mission"}

// linkRecords turns the anchors accepted by keep into title/url records,
// deduplicated by resolved url.
func linkRecords(doc *goquery.Selection, siteRoot string, keep func(parser.Anchor) bool) []record.Record {
	var out []record.Record
	for _, a := range parser.Anchors(doc) {
		if !keep(a) {
			continue
		}
		out = append(out, record.New("title", a.Text, "url", parser.ResolveURL(siteRoot, a.Href)))
	}
	return parser.DedupeByKey(out, "url")
}

// linkSource scrapes a single page for links matching a filter.
type linkSource struct {
	name    string
	label   string
	page    string
	fetcher DocumentFetcher
	cfg     Config
	logger  *zap.Logger
	keep    func(parser.Anchor) bool
}

func (s *linkSource) Name() string  { return s.name }
func (s *linkSource) Label() string { return s.label }

func (s *linkSource) Scrape(ctx context.Context) ([]record.Record, error) {
	url := s.cfg.url(s.page)
	doc, err := s.fetcher.Document(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	records := linkRecords(doc.Selection, s.cfg.SiteRoot, s.keep)
	s.logger.Debug("links collected", zap.String("url", url), zap.Int("count", len(records)))
	return records, nil
}

// NewTimelineLinks returns the timeline_links source.
func NewTimelineLinks(fetcher DocumentFetcher, cfg Config, logger *zap.Logger) Source {
	return &linkSource{
		name:    TimelineLinks,
		label:   "timeline items",
		page:    "Timeline.html",
		fetcher: fetcher,
		cfg:     cfg.withDefaults(),
		logger:  logger.Named(TimelineLinks),
		keep: func(a parser.Anchor) bool {
			return strings.Contains(a.Href, "timeline=timeline")
		},
	}
}

// NewUpcomingMissions returns the upcoming_missions source.
func NewUpcomingMissions(fetcher DocumentFetcher, cfg Config, logger *zap.Logger) Source {
	return &linkSource{
		name:    UpcomingMissions,
		label:   "upcoming mission items",
		page:    "FutureMissions.html",
		fetcher: fetcher,
		cfg:     cfg.withDefaults(),
		logger:  logger.Named(UpcomingMissions),
		keep: func(a parser.Anchor) bool {
			return a.Text != "" && containsAny(a.Href, upcomingLinkCues)
		},
	}
}

// NewsSource scrapes press release links.
type NewsSource struct {
	fetcher DocumentFetcher
	cfg     Config
	logger  *zap.Logger
}

// NewNews returns the news source.
func NewNews(fetcher DocumentFetcher, cfg Config, logger *zap.Logger) *NewsSource {
	return &NewsSource{fetcher: fetcher, cfg: cfg.withDefaults(), logger: logger.Named(News)}
}

// Name implements Source.
func (s *NewsSource) Name() string { return News }

// Label implements Source.
func (s *NewsSource) Label() string { return "news items" }

// Scrape implements Source. Links are not deduplicated; collection stops at
// the configured limit.
func (s *NewsSource) Scrape(ctx context.Context) ([]record.Record, error) {
	url := s.cfg.url("Press.html")
	doc, err := s.fetcher.Document(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	var out []record.Record
	for _, a := range parser.Anchors(doc.Selection) {
		if a.Text == "" || !strings.Contains(strings.ToLower(a.Href), "press") {
			continue
		}
		out = append(out, record.New("title", a.Text, "url", parser.ResolveURL(s.cfg.SiteRoot, a.Href)))
		if len(out) >= s.cfg.NewsLimit {
			break
		}
	}
	return out, nil
}
