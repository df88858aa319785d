package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "prefabricator.yaml"

type ProjectConfig struct {
	Project       string              `yaml:"project"`
	Version       int                 `yaml:"version"`
	Database      DatabaseConfig      `yaml:"database"`
	Neo4j         Neo4jConfig         `yaml:"neo4j"`
	Assets        AssetsConfig        `yaml:"assets"`
	Build         BuildConfig         `yaml:"build"`
	Serialization SerializationConfig `yaml:"serialization"`
	Log           LogConfig           `yaml:"log"`
}

type DatabaseConfig struct {
	// DSN selects the backend by scheme: sqlite:// or postgres://.
	DSN string `yaml:"dsn"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// AssetsConfig lists the directories holding template documents.
type AssetsConfig struct {
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
}

type BuildConfig struct {
	TimePerFrame         time.Duration `yaml:"time_per_frame"`
	RandomizeNestedSeed  bool          `yaml:"randomize_nested_seed"`
	UnregisterBeforeLoad bool          `yaml:"unregister_before_load"`
	Cache                CacheConfig   `yaml:"cache"`
}

type CacheConfig struct {
	Load bool `yaml:"load"`
	Save bool `yaml:"save"`
}

// SerializationConfig extends the built-in field lists.
type SerializationConfig struct {
	Ignore       []string `yaml:"ignore"`
	Force        []string `yaml:"force"`
	BoundsIgnore []string `yaml:"bounds_ignore"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
	Dev        bool   `yaml:"dev"`
}

// Default returns the configuration every file is decoded on top of.
func Default() ProjectConfig {
	return ProjectConfig{
		Version:  1,
		Database: DatabaseConfig{DSN: "sqlite://prefabricator.db"},
		Build: BuildConfig{
			TimePerFrame:         5 * time.Millisecond,
			UnregisterBeforeLoad: true,
			Cache:                CacheConfig{Load: true, Save: true},
		},
		Log: LogConfig{Level: "info", MaxSize: 100},
	}
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if _, err := cfg.Database.Backend(); err != nil {
		return err
	}
	if len(cfg.Assets.Paths) == 0 {
		return fmt.Errorf("at least one asset path is required")
	}

	seen := make(map[string]struct{})
	for i, p := range cfg.Assets.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("asset path %d is empty", i)
		}
		if _, exists := seen[p]; exists {
			return fmt.Errorf("duplicate asset path: %s", p)
		}
		seen[p] = struct{}{}
	}

	if cfg.Build.TimePerFrame < 0 {
		return fmt.Errorf("build time_per_frame must not be negative")
	}
	if cfg.Log.Level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(strings.ToLower(cfg.Log.Level))); err != nil {
			return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
		}
	}

	return nil
}

// Backend names the store the DSN points at.
func (d DatabaseConfig) Backend() (string, error) {
	switch {
	case strings.HasPrefix(d.DSN, "sqlite://"):
		return "sqlite", nil
	case strings.HasPrefix(d.DSN, "postgres://"), strings.HasPrefix(d.DSN, "postgresql://"):
		return "postgres", nil
	case strings.TrimSpace(d.DSN) == "":
		return "", fmt.Errorf("database dsn is required")
	default:
		return "", fmt.Errorf("unsupported database dsn scheme: %s", d.DSN)
	}
}

// Configured reports whether a graph database is set up.
func (n Neo4jConfig) Configured() bool {
	return strings.TrimSpace(n.URI) != ""
}
