package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"prefabricator/internal/config"
	"prefabricator/internal/graph"
)

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Mirror the asset store into Neo4j and query the reference graph",
	}
	cmd.AddCommand(graphSyncCmd())
	cmd.AddCommand(graphDependentsCmd())
	cmd.AddCommand(graphDanglingCmd())
	cmd.AddCommand(graphCypherCmd())
	return cmd
}

func openGraph(ctx context.Context, cfg *config.ProjectConfig) (*graph.Client, error) {
	if !cfg.Neo4j.Configured() {
		return nil, fmt.Errorf("neo4j is not configured in %s", config.DefaultPath)
	}
	return graph.NewClient(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database)
}
