package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeSpace collapses whitespace runs to a single space and trims.
func NormalizeSpace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Text returns the visible text of sel with element boundaries treated as
// spaces, whitespace-collapsed. Script and style contents are skipped.
func Text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(&b, n)
	}
	return NormalizeSpace(b.String())
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

// ResolveURL makes href absolute against siteRoot. Links that already start
// with "http" are returned unchanged.
func ResolveURL(siteRoot, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimRight(siteRoot, "/") + "/" + strings.TrimLeft(href, "/")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
