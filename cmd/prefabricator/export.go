package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prefabricator/internal/parser"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <path> <file>",
		Short: "Write a stored template or collection as a YAML document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], args[1])
		},
	}
	return cmd
}

func runExport(cmd *cobra.Command, path, file string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	doc := &parser.Document{Kind: parser.KindTemplate}
	doc.Asset, err = db.GetAsset(ctx, path)
	if err != nil {
		return err
	}
	if doc.Asset == nil {
		doc.Kind = parser.KindCollection
		doc.Collection, err = db.GetCollection(ctx, path)
		if err != nil {
			return err
		}
		if doc.Collection == nil {
			return fmt.Errorf("no asset found for %q", path)
		}
	}

	data, err := parser.Encode(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", file, err)
	}

	fmt.Fprintf(os.Stdout, "Exported %s to %s.\n", path, file)
	return nil
}
