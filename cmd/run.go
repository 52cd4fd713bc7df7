package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	formatLine  = "line"
	formatTable = "table"
)

// newRunCmd creates the 'run' subcommand, which scrapes every dataset in order.
func newRunCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape every dataset in sequence",
		Long: `Runs every source in order. A failing source is reported and the run
continues; the command exits non-zero if any source failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatLine && format != formatTable {
				return fmt.Errorf("--format must be %q or %q, got %q", formatLine, formatTable, format)
			}
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			summary, runErr := appInstance.Runner().Run(cmd.Context(), appInstance.Registry().All())
			if format == formatTable {
				summary.WriteTable(cmd.OutOrStdout())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), summary.Line())
			}
			if runErr != nil {
				return fmt.Errorf("run: %w", runErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatLine, "summary format: line or table")
	return cmd
}
