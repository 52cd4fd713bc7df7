// Package cmd defines and implements the CLI commands for the isro-scraper executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/app"
	"github.com/JakeFAU/isro-crawler/internal/config"
	"github.com/JakeFAU/isro-crawler/internal/logging"
	"github.com/JakeFAU/isro-crawler/internal/output"
	"github.com/JakeFAU/isro-crawler/internal/runner"
	"github.com/JakeFAU/isro-crawler/internal/sources"
	"github.com/JakeFAU/isro-crawler/internal/storage/postgres"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the services the commands use.
// This allows tests to inject their own app.
type App interface {
	Close()
	Config() config.Config
	Logger() *zap.Logger
	Sink() *output.Sink
	Registry() *sources.Registry
	Runner() *runner.Runner
	LaunchStore(ctx context.Context) (*postgres.LaunchStore, error)
}

// appFactory builds the App once configuration and logging are ready.
type appFactory func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error)

// newApp is the production factory.
var newApp appFactory = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

// newRootCmd creates the root command and its subcommands. The returned
// cleanup closes the App and flushes the logger; call it once Execute
// returns, including on error.
func newRootCmd(factory appFactory) (*cobra.Command, func()) {
	var (
		cfgFile     string
		logger      *zap.Logger
		appInstance App
	)

	cmd := &cobra.Command{
		Use:   "isro-scraper",
		Short: "Scrapes public mission, launch, and news datasets from the ISRO website.",
		Long: `isro-scraper fetches the agency's public pages, extracts each dataset
into flat records, and writes them as JSON and CSV. Datasets can be served
over HTTP and launch records ingested into Postgres.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err = logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)

			a, err := factory(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			appInstance = a
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},
	}

	cleanup := func() {
		if appInstance != nil {
			appInstance.Close()
			appInstance = nil
		}
		if logger != nil {
			if err := logging.Sync(logger); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "logger sync failed: %v\n", err)
			}
			logger = nil
		}
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, JSON, or TOML); SCRAPER_* env vars override it")

	cmd.AddCommand(
		newScrapeCmd(),
		newRunCmd(),
		newServeCmd(),
		newIngestCmd(),
	)
	return cmd, cleanup
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	root, cleanup := newRootCmd(newApp)
	err := root.ExecuteContext(ctx)
	cleanup()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}
