package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/isro-crawler/internal/output"
	"github.com/JakeFAU/isro-crawler/internal/record"
	"github.com/JakeFAU/isro-crawler/internal/sources"
)

// newIngestCmd creates the 'ingest' subcommand, which loads launch records into Postgres.
func newIngestCmd() *cobra.Command {
	var (
		file    string
		dataset string
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Clean launch records and upsert them into Postgres",
		Long: `Reads a JSON array of launch or spacecraft records, either from --file or
from a dataset previously written by 'scrape', cleans header artifacts and
key names, and upserts each record keyed on (name, launch_date).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if appInstance.Config().Database.DSN == "" {
				return errors.New("database.dsn must be set to ingest")
			}

			var records []record.Record
			if file != "" {
				records, err = readRecordsFile(file)
			} else {
				records, err = appInstance.Sink().Read(cmd.Context(), dataset)
			}
			if err != nil {
				return err
			}

			store, err := appInstance.LaunchStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			res, err := store.Ingest(cmd.Context(), records)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Ingested %d of %d records (%d inserted, %d updated, %d skipped); table holds %d rows\n",
				res.Inserted+res.Updated, res.Read, res.Inserted, res.Updated, res.Skipped, res.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to a JSON array of records (default: the written dataset)")
	cmd.Flags().StringVar(&dataset, "dataset", sources.LaunchMissions, "dataset to ingest when --file is not set")
	return cmd
}

func readRecordsFile(path string) ([]record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	records, err := output.ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}
