package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/isro-crawler/internal/api"
)

// newServeCmd creates the 'serve' subcommand, which exposes the written datasets over HTTP.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the scraped datasets, health, and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.Config()
			srv := api.NewServer(appInstance.Sink(), appInstance.Registry().Names(), appInstance.Logger().Named("api"))
			return srv.ListenAndServe(cmd.Context(), fmt.Sprintf(":%d", cfg.Server.Port), cfg.Server.ShutdownTimeout)
		},
	}
}
