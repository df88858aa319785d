package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prefabricator/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var dsn string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new prefabricator project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, dsn)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dsn, "dsn", "sqlite://prefabricator.db", "Asset store DSN (sqlite:// or postgres://)")
	return cmd
}

func runInit(projectName, dsn string) error {
	configPath := config.DefaultPath
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := (config.DatabaseConfig{DSN: dsn}).Backend(); err != nil {
		return err
	}

	configContents := fmt.Sprintf("project: %q\nversion: 1\n\ndatabase:\n  dsn: %q\n\nneo4j:\n  uri: \"\"\n  username: neo4j\n  password: changeme\n  database: neo4j\n\nassets:\n  paths:\n    - ./templates/\n  exclude:\n    - ./templates/scratch/\n\nbuild:\n  time_per_frame: 5ms\n  randomize_nested_seed: false\n  unregister_before_load: true\n  cache:\n    load: true\n    save: true\n\nlog:\n  level: info\n", projectName, dsn)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.MkdirAll("templates", 0o755); err != nil {
		return fmt.Errorf("creating templates directory: %w", err)
	}

	return nil
}
