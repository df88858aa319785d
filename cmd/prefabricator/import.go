package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prefabricator/internal/ingest"
	"prefabricator/internal/logging"
)

var importFull bool

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Synchronise the asset store with YAML template documents",
		RunE:  runImport,
	}
	cmd.Flags().BoolVar(&importFull, "full", false, "Force full re-import (ignore incremental hashes)")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New("import", cfg.Log)
	defer func() { _ = log.Sync() }()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	result, err := ingest.Run(ctx, cfg, db, ingest.Options{Full: importFull}, log)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Import complete.")
	fmt.Fprintf(os.Stdout, "  Templates upserted:   %d\n", result.AssetsUpserted)
	fmt.Fprintf(os.Stdout, "  Collections upserted: %d\n", result.CollectionsUpserted)
	fmt.Fprintf(os.Stdout, "  References stored:    %d\n", result.ReferencesUpserted)
	fmt.Fprintf(os.Stdout, "  Templates upgraded:   %d\n", result.Upgraded)
	fmt.Fprintf(os.Stdout, "  Assets removed:       %d\n", result.AssetsRemoved)
	fmt.Fprintf(os.Stdout, "  Files skipped:        %d\n", result.FilesSkipped)

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("import completed with errors")
	}

	return nil
}
