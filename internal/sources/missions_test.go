package sources

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const chandrayaanPage = `<html><body>
<h1>Chandrayaan-3 Mission</h1>
<p></p>
<p>Chandrayaan-3 is a follow-on mission to Chandrayaan-2.</p>
<table>
<tr><td>Mission Launch Date :</td><td>July 14, 2023</td></tr>
<tr><td>Launch Vehicle:</td><td>LVM3 M4</td></tr>
<tr><td>Orbit</td><td>Lunar</td></tr>
<tr><td>Launch Date</td><td>ignored duplicate</td></tr>
<tr><td>Status</td><td></td></tr>
<tr><td>single</td></tr>
</table>
<h2>Mission Objectives</h2>
<ul><li>Safe landing</li><li>Rover mobility <ul><li>nested</li></ul></li></ul>
<h3>Sub objectives</h3>
<p>In-situ experiments</p>
<h2>Payloads</h2>
<ol><li>RAMBHA</li><li>ChaSTE</li></ol>
<h2>Latest Updates</h2>
<p>Landed on Aug 23</p>
<h2>Milestones</h2>
<ul><li>Orbit raising complete</li></ul>
<h2>Empty heading</h2>
</body></html>`

func missionDoc(t *testing.T, body string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc.Selection
}

func TestFieldLookupCandidateOrder(t *testing.T) {
	t.Parallel()

	var kv KeyValues
	kv.Add("date", "2023")
	kv.Add("date of launch", "2023-07-14")
	kv.Add("date", "dup")

	v, ok := FieldLookup(kv, []string{"launch date", "date of launch", "date"})
	require.True(t, ok)
	assert.Equal(t, "2023-07-14", v)

	v, ok = FieldLookup(kv, []string{"date"})
	require.True(t, ok)
	assert.Equal(t, "2023", v)

	_, ok = FieldLookup(kv, []string{"orbit"})
	assert.False(t, ok)
}

func TestHeadingSectionsStopAtEqualOrHigherHeading(t *testing.T) {
	t.Parallel()

	sections := HeadingSections(missionDoc(t, chandrayaanPage))

	var headings []string
	for _, s := range sections {
		headings = append(headings, s.Heading)
	}
	assert.Equal(t, []string{
		"chandrayaan-3 mission",
		"mission objectives",
		"sub objectives",
		"payloads",
		"latest updates",
		"milestones",
	}, headings)

	assert.Equal(t, []string{"Safe landing", "Rover mobility nested", "nested", "In-situ experiments"},
		sections.First([]string{"objective"}))
	assert.Equal(t, []string{"In-situ experiments"}, sections[2].Items)
	assert.Equal(t, []string{"RAMBHA", "ChaSTE"}, sections.First([]string{"payload"}))
}

func TestMissionRecordFields(t *testing.T) {
	t.Parallel()

	m := Missions[0]
	r := MissionRecord(missionDoc(t, chandrayaanPage), m, site(m.Page))

	assert.Equal(t, []string{
		"name", "url", "category", "launch_date", "launch_vehicle", "orbit", "status",
		"objectives", "payloads", "notable_events", "summary", "source",
	}, r.Keys())
	assert.Equal(t, "Chandrayaan-3 Mission", r.String("name"))
	assert.Equal(t, "lunar", r.String("category"))
	assert.Equal(t, "2023-07-14", r.String("launch_date"))
	assert.Equal(t, "LVM3 M4", r.String("launch_vehicle"))
	assert.Equal(t, "Lunar", r.String("orbit"))
	assert.Equal(t, "", r.String("status"))
	assert.Equal(t, []string{"Landed on Aug 23", "Orbit raising complete"}, r.List("notable_events"))
	assert.Equal(t, "Chandrayaan-3 is a follow-on mission to Chandrayaan-2.", r.String("summary"))
	assert.Equal(t, "isro.gov.in", r.String("source"))
}

func TestMissionRecordFallsBackToNameHint(t *testing.T) {
	t.Parallel()

	m := Missions[4]
	r := MissionRecord(missionDoc(t, `<html><body><h3>Overview</h3><p>x</p></body></html>`), m, site(m.Page))

	assert.Equal(t, "AstroSat", r.String("name"))
	assert.Equal(t, "", r.String("launch_date"))
	assert.Equal(t, []string{}, r.List("objectives"))
}

func TestMissionDetailsSkipsFailedPages(t *testing.T) {
	t.Parallel()

	pages := map[string]string{}
	for _, m := range Missions[1:] {
		pages[site(m.Page)] = `<html><body><h1>` + m.Name + `</h1></body></html>`
	}
	fetcher := newFakeFetcher(pages)

	rows, err := NewMissionDetails(fetcher, Config{}, zap.NewNop()).Scrape(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errPageMissing)
	require.Len(t, rows, len(Missions)-1)
	assert.Equal(t, "Aditya-L1", rows[0].String("name"))
}
