package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prefabricator/internal/store"
)

func graphDependentsCmd() *cobra.Command {
	var depth int
	var fromStore bool
	cmd := &cobra.Command{
		Use:   "dependents <path>",
		Short: "List templates and collections that build the given asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphDependents(cmd, args[0], depth, fromStore)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 1, "Maximum number of reference hops")
	cmd.Flags().BoolVar(&fromStore, "store", false, "Query the asset store instead of Neo4j")
	return cmd
}

func runGraphDependents(cmd *cobra.Command, path string, depth int, fromStore bool) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var dependents []store.Dependent
	if fromStore {
		db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close(ctx)
		dependents, err = db.Dependents(ctx, path, depth)
		if err != nil {
			return err
		}
	} else {
		client, err := openGraph(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close(ctx)
		dependents, err = client.Dependents(ctx, path, depth)
		if err != nil {
			return err
		}
	}

	if len(dependents) == 0 {
		fmt.Fprintf(os.Stdout, "Nothing depends on %q.\n", path)
		return nil
	}
	for _, d := range dependents {
		fmt.Fprintf(os.Stdout, "%s (depth %d)\n", d.Path, d.Depth)
	}
	return nil
}

func graphDanglingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dangling",
		Short: "List nested template and collection references with no synced target",
		Args:  cobra.NoArgs,
		RunE:  runGraphDangling,
	}
}

func runGraphDangling(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	refs, err := client.DanglingReferences(ctx)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		fmt.Fprintln(os.Stdout, "No dangling references.")
		return nil
	}
	for _, ref := range refs {
		fmt.Fprintf(os.Stdout, "%s -[%s]-> %s\n", ref.From, ref.Type, ref.To)
	}
	return fmt.Errorf("found %d dangling reference(s)", len(refs))
}

func graphCypherCmd() *cobra.Command {
	var paramPairs []string
	cmd := &cobra.Command{
		Use:   "cypher <query>",
		Short: "Execute a raw Cypher query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			params, err := parseParamPairs(paramPairs)
			if err != nil {
				return err
			}
			return runCypher(cmd, query, params)
		},
	}
	cmd.Flags().StringArrayVar(&paramPairs, "param", nil, "Query parameter as key=value (repeatable)")
	return cmd
}

func runCypher(cmd *cobra.Command, query string, params map[string]any) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	rows, err := client.RunCypher(ctx, query, params)
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(payload))
	return nil
}
