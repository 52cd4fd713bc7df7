package parser

import (
	"regexp"
	"time"

	"github.com/araddon/dateparse"
)

const isoDate = "2006-01-02"

// dateLayouts are tried in order before the lenient fallback. Numeric
// dash dates are read month-first, then day-first when the month overflows.
var dateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2006",
	"January 2006",
	isoDate,
	"1-2-2006",
	"2-1-2006",
	"2006",
}

var septAbbrev = regexp.MustCompile(`(?i)\bsept\b\.?`)

// ParseDate coerces free text into YYYY-MM-DD. Unrecognized input is
// returned trimmed and otherwise unchanged; it never fails.
func ParseDate(value string) string {
	v := NormalizeSpace(value)
	if v == "" {
		return ""
	}
	candidate := septAbbrev.ReplaceAllString(v, "Sep")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t.Format(isoDate)
		}
	}
	t, err := dateparse.ParseIn(candidate, time.UTC, dateparse.RetryAmbiguousDateWithSwap(true))
	if err == nil {
		return t.Format(isoDate)
	}
	return v
}
