package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"prefabricator/internal/store"
	"prefabricator/internal/template"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Display a stored template or collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}
	return cmd
}

func runInspect(cmd *cobra.Command, path string) error {
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

	a, err := db.GetAsset(ctx, path)
	if err != nil {
		return err
	}
	if a != nil {
		printAsset(os.Stdout, a)
	} else {
		c, err := db.GetCollection(ctx, path)
		if err != nil {
			return err
		}
		if c == nil {
			fmt.Fprintf(os.Stdout, "No asset found for %q.\n", path)
			return nil
		}
		printCollection(os.Stdout, c)
	}

	refs, err := db.ListReferences(ctx, path, store.DirectionBoth)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}
	fmt.Fprintln(os.Stdout, "References:")
	for _, ref := range refs {
		if ref.From == path {
			fmt.Fprintf(os.Stdout, "  -[%s]-> %s\n", ref.Type, ref.To)
		} else {
			fmt.Fprintf(os.Stdout, "  <-[%s]- %s\n", ref.Type, ref.From)
		}
	}
	return nil
}

func printAsset(out io.Writer, a *template.Asset) {
	fmt.Fprintf(out, "Template: %s\n", a.Path)
	fmt.Fprintf(out, "Schema version: %d\n", a.SchemaVersion)
	fmt.Fprintf(out, "Last update: %s\n", a.LastUpdateID)
	fmt.Fprintf(out, "Root mobility: %s\n", a.RootMobility)
	if a.EventListener != "" {
		fmt.Fprintf(out, "Event listener: %s\n", a.EventListener)
	}
	if len(a.Thumbnail) > 0 {
		fmt.Fprintf(out, "Thumbnail: %d bytes\n", len(a.Thumbnail))
	}

	if len(a.ComponentData) > 0 {
		fmt.Fprintln(out, "Root components:")
		for _, c := range a.ComponentData {
			fmt.Fprintf(out, "  %s %s (%d properties)\n", c.ItemID, c.ClassPath, len(c.Properties))
		}
	}
	if len(a.ActorData) > 0 {
		fmt.Fprintln(out, "Actors:")
		for _, r := range a.ActorData {
			fmt.Fprintf(out, "  %s %s (%d properties)\n", r.ItemID, r.ClassPath, len(r.Properties))
			for _, c := range r.Components {
				fmt.Fprintf(out, "    %s: %s (%d properties)\n", c.Name, c.ClassPath, len(c.Properties))
			}
		}
	}
}

func printCollection(out io.Writer, c *template.Collection) {
	fmt.Fprintf(out, "Collection: %s\n", c.Path)
	if len(c.Entries) == 0 {
		fmt.Fprintln(out, "Entries: none")
		return
	}
	fmt.Fprintln(out, "Entries:")
	for _, e := range c.Entries {
		fmt.Fprintf(out, "  %s (weight %g)\n", e.Template, e.Weight)
	}
}
