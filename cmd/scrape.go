package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/isro-crawler/internal/runner"
	"github.com/JakeFAU/isro-crawler/internal/sources"
)

var sourceNames = []string{
	sources.SpacecraftMissions,
	sources.LaunchMissions,
	sources.TimelineLinks,
	sources.UpcomingMissions,
	sources.News,
	sources.LaunchVehicleSpecs,
	sources.MissionDetails,
}

// newScrapeCmd creates the 'scrape' subcommand, which runs a single source.
func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "scrape <source>",
		Short:     "Scrape one dataset and write its JSON and CSV files",
		Long:      "Scrape one dataset. Valid sources: " + strings.Join(sourceNames, ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: sourceNames,
		RunE:      runScrapeCommand,
	}
}

func runScrapeCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	src, err := appInstance.Registry().Get(args[0])
	if err != nil {
		return err
	}
	res, err := appInstance.Runner().RunOne(cmd.Context(), src)
	if res.Status == runner.StatusOK || res.Status == runner.StatusPartial {
		fmt.Fprintln(cmd.OutOrStdout(), res.Saved())
	}
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	return nil
}
