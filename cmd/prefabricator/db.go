package main

import (
	"context"
	"fmt"

	"prefabricator/internal/class"
	"prefabricator/internal/config"
	"prefabricator/internal/prefab"
	"prefabricator/internal/scene"
	"prefabricator/internal/store"
	"prefabricator/internal/store/postgres"
	"prefabricator/internal/store/sqlite"
)

func loadConfig() (*config.ProjectConfig, error) {
	return config.LoadProjectConfig(config.DefaultPath)
}

// openStore connects to the configured backend and creates missing tables.
func openStore(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	db, err := dialStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

func dialStore(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	backend, err := cfg.Database.Backend()
	if err != nil {
		return nil, err
	}
	switch backend {
	case "sqlite":
		db, err := sqlite.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database backend: %s", backend)
	}
}

// classRegistry holds the built-in scene classes and the instance classes.
func classRegistry() (*class.Registry, error) {
	reg := class.NewRegistry()
	if err := scene.RegisterBuiltins(reg); err != nil {
		return nil, err
	}
	if err := prefab.RegisterClasses(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
