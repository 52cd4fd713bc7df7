package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/parser"
	"github.com/JakeFAU/isro-crawler/internal/record"
)

// tableListing scrapes a paginated listing whose rows live in a table.
type tableListing struct {
	fetcher  DocumentFetcher
	logger   *zap.Logger
	cfg      Config
	page     string
	expected []string
}

func (t tableListing) baseName() string {
	return strings.TrimSuffix(t.page, ".html")
}

// listingResult is what a table listing scrape yields. Found is false when
// the base page has no table with data rows; Base is kept for fallbacks.
type listingResult struct {
	Rows  []record.Record
	Base  *goquery.Document
	Found bool
}

// scrape returns the rows of the base page and every numbered follow-up page.
func (t tableListing) scrape(ctx context.Context) (listingResult, error) {
	base := t.cfg.url(t.page)
	doc, err := t.fetcher.Document(ctx, base)
	if err != nil {
		return listingResult{}, fmt.Errorf("fetch %s: %w", base, err)
	}
	res := listingResult{Base: doc}
	first, err := parser.BestTable(doc.Selection, t.expected)
	if errors.Is(err, parser.ErrNoTable) || len(first.Rows) == 0 {
		t.logger.Info("no listing table", zap.String("url", base))
		return res, nil
	}
	res.Found = true
	rows := append([]record.Record(nil), first.Rows...)

	var errs error
	for _, link := range parser.PaginationLinks(doc.Selection, t.baseName(), t.cfg.SiteRoot) {
		if link == base {
			continue
		}
		if ctx.Err() != nil {
			res.Rows = rows
			return res, multierr.Append(errs, ctx.Err())
		}
		page, err := t.fetcher.Document(ctx, link)
		if err != nil {
			t.logger.Warn("page fetch failed", zap.String("url", link), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("fetch %s: %w", link, err))
			continue
		}
		best, err := parser.BestTable(page.Selection, t.expected)
		if err != nil {
			t.logger.Info("page has no table", zap.String("url", link))
			continue
		}
		rows = append(rows, best.Rows...)
	}
	res.Rows = rows
	return res, errs
}

// NormalizeMissionRows normalizes the date columns and splits a combined
// "vehicle/mission" value into launch_vehicle and mission without
// overwriting values already present.
func NormalizeMissionRows(rows []record.Record) []record.Record {
	out := make([]record.Record, 0, len(rows))
	for _, r := range rows {
		row := r.Clone()
		for _, key := range []string{"date", "launch_date"} {
			if row.Has(key) {
				row.Set(key, parser.ParseDate(row.String(key)))
			}
		}
		lvm := row.String("launch_vehicle_mission")
		if lvm == "" {
			lvm = row.String("launch_vehicle")
		}
		if vehicle, mission, ok := strings.Cut(lvm, "/"); ok {
			row.SetDefault("launch_vehicle", strings.TrimSpace(vehicle))
			row.SetDefault("mission", strings.TrimSpace(mission))
		}
		out = append(out, row)
	}
	return out
}
