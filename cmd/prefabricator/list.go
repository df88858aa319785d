package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prefabricator/internal/store"
)

func listCmd() *cobra.Command {
	var kind string
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored templates and collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, kind, prefix)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Asset kind to filter (template or collection)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Asset path prefix to filter")
	return cmd
}

func runList(cmd *cobra.Command, kind, prefix string) error {
	ctx := context.Background()

	switch kind {
	case "", store.KindTemplate, store.KindCollection:
	default:
		return fmt.Errorf("invalid kind %q: expected %s or %s", kind, store.KindTemplate, store.KindCollection)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	assets, err := db.ListAssets(ctx, kind, prefix)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		fmt.Fprintln(os.Stdout, "No assets found.")
		return nil
	}

	for _, a := range assets {
		if a.Kind == store.KindCollection {
			fmt.Fprintf(os.Stdout, "%s (collection)\n", a.Path)
			continue
		}
		fmt.Fprintf(os.Stdout, "%s (template v%d) [%d actors, %d components]\n", a.Path, a.SchemaVersion, a.Actors, a.Components)
	}
	return nil
}
