package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/JakeFAU/isro-crawler/internal/parser"
	"github.com/JakeFAU/isro-crawler/internal/record"
)

// Mission is a mission detail page with its name hint and category tag.
type Mission struct {
	Name     string
	Page     string
	Category string
}

// Missions are scraped in this order.
var Missions = []Mission{
	{Name: "Chandrayaan-3", Page: "Chandrayaan3_Details.html", Category: "lunar"},
	{Name: "Aditya-L1", Page: "Aditya_L1-MissionDetails.html", Category: "solar"},
	{Name: "Gaganyaan", Page: "Gaganyaan.html", Category: "human_spaceflight"},
	{Name: "Mars Orbiter Mission (MOM)", Page: "MarsOrbiterMissionSpacecraft.html", Category: "planetary"},
	{Name: "AstroSat", Page: "AstroSat.html", Category: "astronomy"},
}

// missionSourceTag is stored in every mission detail record.
const missionSourceTag = "isro.gov.in"

// Candidate substrings tried, in order, against table keys and section headings.
var (
	launchDateKeys    = []string{"launch date", "date of launch", "date"}
	launchVehicleKeys = []string{"launch vehicle", "vehicle"}
	orbitKeys         = []string{"orbit", "halo orbit"}
	statusKeys        = []string{"status"}
	objectiveKeys     = []string{"objective", "goals", "aims"}
	payloadKeys       = []string{"payload", "instrument"}
	eventKeys         = []string{"update", "milestone", "event", "achievement"}
)

// KeyValues is an ordered key to value lookup.
type KeyValues struct {
	keys []string
	vals map[string]string
}

// Add stores value under key unless key is already present.
func (kv *KeyValues) Add(key, value string) {
	if kv.vals == nil {
		kv.vals = make(map[string]string)
	}
	if _, ok := kv.vals[key]; ok {
		return
	}
	kv.keys = append(kv.keys, key)
	kv.vals[key] = value
}

// Keys returns keys in insertion order.
func (kv KeyValues) Keys() []string { return append([]string(nil), kv.keys...) }

// Value returns the value for key.
func (kv KeyValues) Value(key string) string { return kv.vals[key] }

// FieldLookup tries each candidate in order and returns the value of the
// first key containing it.
func FieldLookup(kv KeyValues, candidates []string) (string, bool) {
	for _, c := range candidates {
		for _, k := range kv.keys {
			if strings.Contains(k, c) {
				return kv.vals[k], true
			}
		}
	}
	return "", false
}

// Section is the content that follows a heading.
type Section struct {
	Heading string
	Items   []string
}

// Sections is an ordered list of heading sections.
type Sections []Section

// First returns the items of the first section whose heading contains any of subs.
func (s Sections) First(subs []string) []string {
	for _, sec := range s {
		if containsAny(sec.Heading, subs) {
			return sec.Items
		}
	}
	return nil
}

// All concatenates the items of every section whose heading contains any of subs.
func (s Sections) All(subs []string) []string {
	var out []string
	for _, sec := range s {
		if containsAny(sec.Heading, subs) {
			out = append(out, sec.Items...)
		}
	}
	return out
}

// TableKeyValues reads every table row with at least two cells as a key/value
// pair. Keys are lowercased with trailing colons removed; the first
// occurrence of a key wins.
func TableKeyValues(doc *goquery.Selection) KeyValues {
	var kv KeyValues
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td,th")
		if cells.Length() < 2 {
			return
		}
		key := strings.ToLower(strings.TrimSpace(strings.TrimRight(parser.Text(cells.Eq(0)), ":")))
		val := parser.Text(cells.Eq(1))
		if key == "" || val == "" {
			return
		}
		kv.Add(key, val)
	})
	return kv
}

func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return 0
	}
	if lvl := int(n.Data[1] - '0'); lvl >= 1 && lvl <= 4 {
		return lvl
	}
	return 0
}

// after returns the first node following n's subtree in document order.
func after(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

func next(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	return after(n)
}

func nodeText(n *html.Node) string {
	return parser.Text(goquery.NewDocumentFromNode(n).Selection)
}

// HeadingSections maps each h1-h4 heading's lowercased text to the direct list
// items of following lists and the text of following paragraphs, up to the
// next heading of equal or higher prominence. Headings with no content are
// omitted; a repeated heading keeps its first position and its last content.
func HeadingSections(doc *goquery.Selection) Sections {
	var (
		out   Sections
		index = make(map[string]int)
	)
	doc.Find("h1,h2,h3,h4").Each(func(_ int, h *goquery.Selection) {
		node := h.Nodes[0]
		title := strings.ToLower(parser.Text(h))
		if title == "" {
			return
		}
		level := headingLevel(node)
		var items []string
		for cur := after(node); cur != nil; cur = next(cur) {
			if cur.Type != html.ElementNode {
				continue
			}
			if lvl := headingLevel(cur); lvl > 0 && lvl <= level {
				break
			}
			switch cur.Data {
			case "ul", "ol":
				for li := cur.FirstChild; li != nil; li = li.NextSibling {
					if li.Type != html.ElementNode || li.Data != "li" {
						continue
					}
					if t := nodeText(li); t != "" {
						items = append(items, t)
					}
				}
			case "p":
				if t := nodeText(cur); t != "" {
					items = append(items, t)
				}
			}
		}
		if len(items) == 0 {
			return
		}
		if i, ok := index[title]; ok {
			out[i].Items = items
			return
		}
		index[title] = len(out)
		out = append(out, Section{Heading: title, Items: items})
	})
	return out
}

func firstParagraph(doc *goquery.Selection) string {
	var summary string
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		summary = parser.Text(p)
		return summary == ""
	})
	return summary
}

// MissionRecord derives the structured detail record for one mission page.
func MissionRecord(doc *goquery.Selection, m Mission, url string) record.Record {
	title := parser.Text(doc.Find("h1,h2").First())
	if title == "" {
		title = m.Name
	}
	kv := TableKeyValues(doc)
	sections := HeadingSections(doc)

	launchDate, _ := FieldLookup(kv, launchDateKeys)
	if launchDate != "" {
		launchDate = parser.ParseDate(launchDate)
	}
	vehicle, _ := FieldLookup(kv, launchVehicleKeys)
	orbit, _ := FieldLookup(kv, orbitKeys)
	status, _ := FieldLookup(kv, statusKeys)

	r := record.New(
		"name", title,
		"url", url,
		"category", m.Category,
		"launch_date", launchDate,
		"launch_vehicle", vehicle,
		"orbit", orbit,
		"status", status,
	)
	r.SetList("objectives", sections.First(objectiveKeys))
	r.SetList("payloads", sections.First(payloadKeys))
	r.SetList("notable_events", sections.All(eventKeys))
	r.Set("summary", firstParagraph(doc))
	r.Set("source", missionSourceTag)
	return r
}

// MissionDetailsSource scrapes the fixed set of mission detail pages.
type MissionDetailsSource struct {
	fetcher DocumentFetcher
	cfg     Config
	logger  *zap.Logger
}

// NewMissionDetails returns the mission_details source.
func NewMissionDetails(fetcher DocumentFetcher, cfg Config, logger *zap.Logger) *MissionDetailsSource {
	return &MissionDetailsSource{fetcher: fetcher, cfg: cfg.withDefaults(), logger: logger.Named(MissionDetails)}
}

// Name implements Source.
func (s *MissionDetailsSource) Name() string { return MissionDetails }

// Label implements Source.
func (s *MissionDetailsSource) Label() string { return "mission details rows" }

// Scrape implements Source. A mission page that cannot be fetched is skipped.
func (s *MissionDetailsSource) Scrape(ctx context.Context) ([]record.Record, error) {
	var (
		out  []record.Record
		errs error
	)
	for _, m := range Missions {
		if ctx.Err() != nil {
			return out, multierr.Append(errs, ctx.Err())
		}
		url := s.cfg.url(m.Page)
		doc, err := s.fetcher.Document(ctx, url)
		if err != nil {
			s.logger.Warn("mission page skipped", zap.String("mission", m.Name), zap.String("url", url), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("fetch %s: %w", url, err))
			continue
		}
		out = append(out, MissionRecord(doc.Selection, m, url))
	}
	return out, errs
}
