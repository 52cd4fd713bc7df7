// Package output renders records as JSON and CSV and stores them in a blob store.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/JakeFAU/isro-crawler/internal/record"
)

// WriteJSON writes records as a 2-space indented JSON array. HTML characters
// and non-ASCII text are written as-is.
func WriteJSON(w io.Writer, records []record.Record) error {
	if records == nil {
		records = []record.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON array of records, keeping each object's key order.
func ReadJSON(r io.Reader) ([]record.Record, error) {
	var records []record.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return records, nil
}

// Header returns the sorted union of keys across records.
func Header(records []record.Record) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, r := range records {
		for _, k := range r.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// WriteCSV writes records as CSV with a header of every key, sorted. Missing
// keys are empty cells and list values are JSON arrays. No records writes nothing.
func WriteCSV(w io.Writer, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}
	header := Header(records)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(header))
	for _, r := range records {
		for i, k := range header {
			row[i] = r.Cell(k)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Render returns both encodings of records.
func Render(records []record.Record) (jsonData, csvData []byte, err error) {
	var jbuf, cbuf bytes.Buffer
	if err := WriteJSON(&jbuf, records); err != nil {
		return nil, nil, err
	}
	if err := WriteCSV(&cbuf, records); err != nil {
		return nil, nil, err
	}
	return jbuf.Bytes(), cbuf.Bytes(), nil
}
