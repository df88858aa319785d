package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prefabricator/internal/logging"
	"prefabricator/internal/store"
	"prefabricator/internal/template"
)

var upgradeDryRun bool

func upgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Migrate stored templates to the latest schema version",
		Args:  cobra.NoArgs,
		RunE:  runUpgrade,
	}
	cmd.Flags().BoolVar(&upgradeDryRun, "dry-run", false, "List outdated templates without writing them")
	return cmd
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New("upgrade", cfg.Log)
	defer func() { _ = log.Sync() }()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	summaries, err := db.ListAssets(ctx, store.KindTemplate, "")
	if err != nil {
		return err
	}
	hashes, err := db.GetSourceHashes(ctx)
	if err != nil {
		return err
	}

	upgraded := 0
	for _, summary := range summaries {
		if summary.SchemaVersion >= template.Latest {
			continue
		}
		a, err := db.GetAsset(ctx, summary.Path)
		if err != nil {
			return err
		}
		if a == nil || !template.NeedsUpgrade(a) {
			continue
		}
		fmt.Fprintf(os.Stdout, "  - %s: v%d -> v%d\n", a.Path, a.SchemaVersion, template.Latest)
		if upgradeDryRun {
			upgraded++
			continue
		}
		up, err := template.Upgrade(a)
		if err != nil {
			return fmt.Errorf("upgrading %s: %w", a.Path, err)
		}
		in := store.AssetInput{Asset: up, SourceFile: summary.SourceFile, SourceHash: hashes[summary.SourceFile]}
		if err := store.SaveAsset(ctx, db, in); err != nil {
			return fmt.Errorf("saving %s: %w", a.Path, err)
		}
		log.Info("template upgraded", zap.String("template", up.Path), zap.Int("schema_version", up.SchemaVersion))
		upgraded++
	}

	if upgraded == 0 {
		fmt.Fprintln(os.Stdout, "All templates are up to date.")
		return nil
	}
	if upgradeDryRun {
		fmt.Fprintf(os.Stdout, "%d template(s) need upgrading.\n", upgraded)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Upgraded %d template(s).\n", upgraded)
	return nil
}
