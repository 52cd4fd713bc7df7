package parser

import (
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/isro-crawler/internal/record"
)

// ErrNoTable is returned when a page has no table at all.
var ErrNoTable = errors.New("no table found")

// TableToRecords converts a table into one record per non-empty data row.
// Header keys come from the first row of thead when present, otherwise from
// the table's first row. Cells beyond the header count get col_{n} keys.
func TableToRecords(table *goquery.Selection) []record.Record {
	headerRow := table.Find("thead tr").First()
	if headerRow.Length() == 0 || headerRow.ChildrenFiltered("th,td").Length() == 0 {
		headerRow = table.Find("tr").First()
	}

	var headers []string
	headerRow.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, NormalizeKey(Text(cell)))
	})

	var rows []record.Record
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if headerRow.Length() > 0 && tr.Nodes[0] == headerRow.Nodes[0] {
			return
		}
		if tr.ParentsFiltered("thead").Length() > 0 {
			return
		}
		var cells []string
		nonEmpty := false
		tr.ChildrenFiltered("td,th").Each(func(_ int, cell *goquery.Selection) {
			text := Text(cell)
			if text != "" {
				nonEmpty = true
			}
			cells = append(cells, text)
		})
		if !nonEmpty {
			return
		}
		var r record.Record
		for i, val := range cells {
			key := fmt.Sprintf("col_%d", i+1)
			if i < len(headers) {
				key = headers[i]
			}
			r.Set(key, val)
		}
		rows = append(rows, r)
	})
	return rows
}

// TableCandidate pairs a table with its relevance score.
type TableCandidate struct {
	Table *goquery.Selection
	Rows  []record.Record
	Score int
}

// ScoreTable scores a table against expected canonical keys: every distinct
// matching key is worth 100, every row 1.
func ScoreTable(table *goquery.Selection, expected map[string]struct{}) TableCandidate {
	rows := TableToRecords(table)
	seen := make(map[string]struct{})
	matched := 0
	for _, r := range rows {
		for _, k := range r.Keys() {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			if _, ok := expected[k]; ok {
				matched++
			}
		}
	}
	return TableCandidate{
		Table: table,
		Rows:  rows,
		Score: matched*100 + len(rows),
	}
}

// BestTable picks the table in doc that best matches the expected header
// names. Tables with rows always beat tables without; ties go to the first
// table. When no table has rows, the first table is returned.
func BestTable(doc *goquery.Selection, expectedHeaders []string) (TableCandidate, error) {
	tables := doc.Find("table")
	if tables.Length() == 0 {
		return TableCandidate{}, ErrNoTable
	}
	expected := NormalizeKeys(expectedHeaders)

	var (
		best     TableCandidate
		found    bool
		fallback TableCandidate
	)
	tables.Each(func(i int, table *goquery.Selection) {
		candidate := ScoreTable(table, expected)
		if i == 0 || len(candidate.Rows) > len(fallback.Rows) {
			fallback = candidate
		}
		if len(candidate.Rows) == 0 {
			return
		}
		if !found || candidate.Score > best.Score {
			best = candidate
			found = true
		}
	})
	if !found {
		return fallback, nil
	}
	return best, nil
}
