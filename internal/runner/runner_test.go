package runner

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/isro-crawler/internal/output"
	pubmemory "github.com/JakeFAU/isro-crawler/internal/publisher/memory"
	"github.com/JakeFAU/isro-crawler/internal/record"
	"github.com/JakeFAU/isro-crawler/internal/sources"
	"github.com/JakeFAU/isro-crawler/internal/storage/memory"
	"github.com/JakeFAU/isro-crawler/internal/storage/postgres"
)

type stubSource struct {
	name    string
	records []record.Record
	err     error
}

func (s stubSource) Name() string  { return s.name }
func (s stubSource) Label() string { return s.name + " rows" }
func (s stubSource) Scrape(context.Context) ([]record.Record, error) {
	return s.records, s.err
}

type recordingRecorder struct {
	mu   sync.Mutex
	rows []postgres.RunRow
}

func (r *recordingRecorder) RecordRun(_ context.Context, row postgres.RunRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return nil
}

func fixedClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestRunner(t *testing.T) (*Runner, *memory.BlobStore, *pubmemory.Publisher, *recordingRecorder) {
	t.Helper()
	store := memory.NewBlobStore()
	pub := pubmemory.New()
	rec := &recordingRecorder{}
	r := New(output.NewSink(store, "", nil), nil,
		WithPublisher(pub),
		WithRunRecorder(rec),
		WithClock(fixedClock()),
		WithIDGenerator(func() string { return "run-1" }),
	)
	return r, store, pub, rec
}

func TestRunContinuesPastFailures(t *testing.T) {
	t.Parallel()

	r, store, pub, rec := newTestRunner(t)
	boom := errors.New("connection reset")

	summary, err := r.Run(context.Background(), []sources.Source{
		stubSource{name: sources.SpacecraftMissions, records: []record.Record{record.New("name", "Aryabhata")}},
		stubSource{name: sources.LaunchMissions, err: boom},
		stubSource{name: sources.LaunchVehicleSpecs, records: []record.Record{record.New("vehicle", "PSLV")}, err: boom},
		stubSource{name: sources.News},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	require.Len(t, summary.Results, 4)
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, StatusOK, summary.Results[0].Status)
	assert.Equal(t, StatusError, summary.Results[1].Status)
	assert.Equal(t, StatusPartial, summary.Results[2].Status)
	assert.Equal(t, StatusOK, summary.Results[3].Status)

	assert.ElementsMatch(t, []string{
		"spacecraft_missions.json", "spacecraft_missions.csv",
		"launch_vehicle_specs.json", "launch_vehicle_specs.csv",
		"news.json", "news.csv",
	}, store.Paths())

	events := pub.Events()
	require.Len(t, events, 4)
	assert.Equal(t, "launch_missions", events[1].Source)
	assert.Equal(t, "connection reset", events[1].Error)
	assert.Empty(t, events[1].Outputs)
	assert.Equal(t, []string{"memory://news.json", "memory://news.csv"}, events[3].Outputs)

	require.Len(t, rec.rows, 4)
	assert.Equal(t, "run-1", rec.rows[0].RunID)
	assert.Equal(t, 1, rec.rows[0].Count)

	assert.Equal(t,
		"Done. Spacecraft: 1, Launches: 0, Specs: 1, News: 0 (failed: launch_missions, launch_vehicle_specs)",
		summary.Line())
}

func TestRunOneReportsSavedLine(t *testing.T) {
	t.Parallel()

	r, _, _, _ := newTestRunner(t)
	res, err := r.RunOne(context.Background(), stubSource{
		name:    sources.TimelineLinks,
		records: []record.Record{record.New("title", "1975"), record.New("title", "1980")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Saved 2 timeline_links rows", res.Saved())
	assert.Equal(t, time.Second, res.Duration)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	r, store, _, _ := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.Run(ctx, []sources.Source{stubSource{name: sources.News}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Results)
	assert.Empty(t, store.Paths())
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	summary := Summary{
		RunID: "run-1",
		Results: []Result{
			{Name: "news", Count: 3, Status: StatusOK, Outputs: []string{"file:///data/news.json"}},
			{Name: "timeline_links", Status: StatusError, Err: errors.New("HTTP 503")},
		},
	}
	var buf bytes.Buffer
	summary.WriteTable(&buf)

	out := buf.String()
	assert.Contains(t, out, "Run run-1")
	assert.Contains(t, out, "file:///data/news.json")
	assert.Contains(t, out, "HTTP 503")
	assert.Contains(t, out, "TOTAL")
}
