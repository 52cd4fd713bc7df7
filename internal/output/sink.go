package output

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/record"
	"github.com/JakeFAU/isro-crawler/internal/storage"
)

const (
	// ContentTypeJSON is stored with <name>.json objects.
	ContentTypeJSON = "application/json; charset=utf-8"
	// ContentTypeCSV is stored with <name>.csv objects.
	ContentTypeCSV = "text/csv; charset=utf-8"
)

// Written lists the URIs produced by one Sink.Write call.
type Written struct {
	JSON string `json:"json"`
	CSV  string `json:"csv"`
}

// URIs returns the written locations in JSON, CSV order.
func (w Written) URIs() []string {
	return []string{w.JSON, w.CSV}
}

// Sink writes dataset pairs into a blob store under an optional prefix.
type Sink struct {
	store  storage.BlobStore
	prefix string
	logger *zap.Logger
}

// NewSink returns a Sink backed by store.
func NewSink(store storage.BlobStore, prefix string, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{store: store, prefix: prefix, logger: logger}
}

// ObjectPath returns the object key used for name with the given extension.
func (s *Sink) ObjectPath(name, ext string) string {
	return path.Join(s.prefix, name+"."+ext)
}

// Write stores <name>.json and <name>.csv, replacing earlier output.
func (s *Sink) Write(ctx context.Context, name string, records []record.Record) (Written, error) {
	jsonData, csvData, err := Render(records)
	if err != nil {
		return Written{}, fmt.Errorf("render %s: %w", name, err)
	}
	var out Written
	out.JSON, err = s.store.PutObject(ctx, s.ObjectPath(name, "json"), ContentTypeJSON, bytes.NewReader(jsonData))
	if err != nil {
		return Written{}, fmt.Errorf("store %s json: %w", name, err)
	}
	out.CSV, err = s.store.PutObject(ctx, s.ObjectPath(name, "csv"), ContentTypeCSV, bytes.NewReader(csvData))
	if err != nil {
		return out, fmt.Errorf("store %s csv: %w", name, err)
	}
	s.logger.Debug("dataset written",
		zap.String("source", name),
		zap.Int("records", len(records)),
		zap.String("json", out.JSON),
		zap.String("csv", out.CSV),
	)
	return out, nil
}

// Read loads a previously written dataset.
func (s *Sink) Read(ctx context.Context, name string) ([]record.Record, error) {
	data, err := s.store.GetObject(ctx, s.ObjectPath(name, "json"))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	records, err := ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return records, nil
}

// Object returns the raw bytes of a written dataset file; ext is "json" or "csv".
func (s *Sink) Object(ctx context.Context, name, ext string) ([]byte, error) {
	data, err := s.store.GetObject(ctx, s.ObjectPath(name, ext))
	if err != nil {
		return nil, fmt.Errorf("load %s.%s: %w", name, ext, err)
	}
	return data, nil
}
