package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/isro-crawler/internal/record"
)

// PaginationLinks collects numbered page links whose href mentions baseName,
// resolved against siteRoot, in first-seen order without duplicates.
func PaginationLinks(doc *goquery.Selection, baseName, siteRoot string) []string {
	var links []string
	seen := make(map[string]struct{})
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if !isDigits(Text(a)) {
			return
		}
		href, ok := a.Attr("href")
		if !ok || href == "" || !strings.Contains(href, baseName) {
			return
		}
		link := ResolveURL(siteRoot, href)
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links
}

// Anchor is a link's visible text and raw href.
type Anchor struct {
	Text string
	Href string
}

// Anchors returns every anchor in document order.
func Anchors(doc *goquery.Selection) []Anchor {
	var out []Anchor
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		out = append(out, Anchor{Text: Text(a), Href: href})
	})
	return out
}

// DedupeByKey keeps the first record for each distinct value of key. Records
// without the key are kept.
func DedupeByKey(records []record.Record, key string) []record.Record {
	out := make([]record.Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		v, ok := r.Get(key)
		if ok {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}
