package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/app"
	"github.com/JakeFAU/isro-crawler/internal/config"
	"github.com/JakeFAU/isro-crawler/internal/record"
	"github.com/JakeFAU/isro-crawler/internal/sources"
)

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func TestNewWithLocalStorage(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	a, err := app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.Len(t, a.Registry().Names(), 7)
	assert.NotNil(t, a.Runner())

	written, err := a.Sink().Write(context.Background(), sources.News, []record.Record{record.New("title", "t")})
	require.NoError(t, err)
	assert.Contains(t, written.JSON, "file://")
}

func TestNewWithMemoryStorage(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Storage.Provider = config.ProviderMemory
	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	written, err := a.Sink().Write(context.Background(), sources.News, nil)
	require.NoError(t, err)
	assert.Equal(t, "memory://news.json", written.JSON)
}

func TestLaunchStoreRequiresDSN(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), baseConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, err = a.LaunchStore(context.Background())
	assert.ErrorContains(t, err, "database.dsn")
}
