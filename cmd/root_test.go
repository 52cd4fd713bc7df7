package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/app"
	"github.com/JakeFAU/isro-crawler/internal/config"
	"github.com/JakeFAU/isro-crawler/internal/record"
	"github.com/JakeFAU/isro-crawler/internal/sources"
	"github.com/JakeFAU/isro-crawler/internal/storage/postgres"
)

const timelinePage = `<html><body>
<a href="Timeline.html?timeline=timeline&year=1975">Aryabhata</a>
<a href="Timeline.html?timeline=timeline&year=1980">Rohini</a>
<a href="Home.html">Home</a>
</body></html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Timeline.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(timelinePage))
	})
	mux.HandleFunc("/PSLV_CON.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><h1>PSLV</h1><p>Polar Satellite Launch Vehicle</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, siteRoot, outDir string, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`fetch:
  max_retries: 1
  politeness_delay: 0s
sources:
  site_root: %s
output:
  dir: %s
logging:
  development: false
  level: error
%s`, siteRoot, outDir, extra)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(factory appFactory, args ...string) (string, error) {
	root, cleanup := newRootCmd(factory)
	defer cleanup()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScrapeWritesDataset(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	outDir := t.TempDir()
	cfgPath := writeConfig(t, site.URL, outDir, "")

	out, err := execute(newApp, "--config", cfgPath, "scrape", sources.TimelineLinks)
	require.NoError(t, err)
	assert.Equal(t, "Saved 2 timeline items\n", out)

	data, err := os.ReadFile(filepath.Join(outDir, "timeline_links.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "Aryabhata"`)
	assert.FileExists(t, filepath.Join(outDir, "timeline_links.csv"))
}

func TestScrapeReportsPartialResults(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	outDir := t.TempDir()
	cfgPath := writeConfig(t, site.URL, outDir, "")

	out, err := execute(newApp, "--config", cfgPath, "scrape", sources.LaunchVehicleSpecs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GSLV_CON.html")
	assert.Contains(t, out, "Saved 1 launch vehicle spec rows\n")

	data, err := os.ReadFile(filepath.Join(outDir, "launch_vehicle_specs.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"vehicle": "PSLV"`)
}

func TestScrapeFailureWithoutRecordsPrintsNoCount(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	cfgPath := writeConfig(t, site.URL, t.TempDir(), "")

	out, err := execute(newApp, "--config", cfgPath, "scrape", sources.News)
	require.Error(t, err)
	assert.NotContains(t, out, "Saved")
}

// closeTrackingApp records whether Close ran.
type closeTrackingApp struct {
	App
	closed *atomic.Bool
}

func (a closeTrackingApp) Close() {
	a.closed.Store(true)
	a.App.Close()
}

func TestFailedCommandStillClosesApp(t *testing.T) {
	t.Parallel()

	var closed atomic.Bool
	factory := func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
		base, err := app.New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return closeTrackingApp{App: base, closed: &closed}, nil
	}

	cfgPath := writeConfig(t, "http://127.0.0.1:1", t.TempDir(), "")
	_, err := execute(factory, "--config", cfgPath, "run", "--format", "xml")
	require.Error(t, err)
	assert.True(t, closed.Load())
}

func TestScrapeUnknownSource(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfig(t, "http://127.0.0.1:1", t.TempDir(), "")
	_, err := execute(newApp, "--config", cfgPath, "scrape", "satellites")
	require.Error(t, err)
	assert.ErrorIs(t, err, sources.ErrUnknownSource)
}

func TestRunContinuesAndReportsFailures(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	cfgPath := writeConfig(t, site.URL, t.TempDir(), "")

	out, err := execute(newApp, "--config", cfgPath, "run")
	require.Error(t, err)
	assert.Contains(t, out, "Done. Spacecraft: 0")
	assert.Contains(t, out, "Timeline: 2")
	assert.Contains(t, out, "(failed: ")
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfig(t, "http://127.0.0.1:1", t.TempDir(), "")
	_, err := execute(newApp, "--config", cfgPath, "run", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--format")
}

func TestMissingConfigFileFails(t *testing.T) {
	t.Parallel()

	_, err := execute(newApp, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

// mockStoreApp swaps the Postgres-backed launch store for one on a pgxmock pool.
type mockStoreApp struct {
	App
	store *postgres.LaunchStore
}

func (a mockStoreApp) LaunchStore(context.Context) (*postgres.LaunchStore, error) {
	return a.store, nil
}

func TestIngestFromFile(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	store, err := postgres.NewLaunchStore(mock, "launches", nil)
	require.NoError(t, err)

	factory := func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
		base, err := app.New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return mockStoreApp{App: base, store: store}, nil
	}

	input := filepath.Join(t.TempDir(), "launches.json")
	require.NoError(t, os.WriteFile(input, []byte(
		`[{"serial":"1","spacecraft":"Aditya-L1","date":"Sep 02, 2023"},{"serial":"⇅"}]`), 0o600))

	doc, err := json.Marshal(record.New("sl_no", "1", "name", "Aditya-L1", "launch_date", "Sep 02, 2023"))
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS launches").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectQuery("INSERT INTO launches").
		WithArgs("Aditya-L1", "Sep 02, 2023", doc).
		WillReturnRows(pgxmock.NewRows([]string{"inserted"}).AddRow(true))
	mock.ExpectQuery(`SELECT count\(\*\) FROM launches`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

	cfgPath := writeConfig(t, "http://127.0.0.1:1", t.TempDir(), "database:\n  dsn: postgres://localhost/isro\n")
	out, err := execute(factory, "--config", cfgPath, "ingest", "--file", input)
	require.NoError(t, err)
	assert.Equal(t, "Ingested 1 of 2 records (1 inserted, 0 updated, 0 skipped); table holds 1 rows\n", out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestRequiresDSN(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfig(t, "http://127.0.0.1:1", t.TempDir(), "")
	_, err := execute(newApp, "--config", cfgPath, "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.dsn")
}
