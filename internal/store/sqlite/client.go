package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"prefabricator/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Client)(nil)

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"busy_timeout(30000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

type Client struct {
	db *sql.DB
}

func New(ctx context.Context, dsn string) (*Client, error) {
	driverDSN, memory, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}

// parseDSN turns sqlite://path?query into a driver DSN carrying the
// connection pragmas. It reports whether the database lives in memory.
func parseDSN(dsn string) (string, bool, error) {
	rest, ok := strings.CutPrefix(dsn, "sqlite://")
	if !ok {
		return "", false, fmt.Errorf("invalid sqlite DSN scheme, expected sqlite://")
	}

	path, query, _ := strings.Cut(rest, "?")
	memory := path == ":memory:"
	if !memory {
		unescaped, err := url.PathUnescape(path)
		if err != nil {
			return "", false, fmt.Errorf("unescaping path: %w", err)
		}
		path = unescaped
		if path == "" {
			return "", false, fmt.Errorf("missing database path")
		}
		if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
			path = "./" + path
		}
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return "", false, fmt.Errorf("parsing query: %w", err)
	}
	for _, p := range pragmas {
		if memory && strings.HasPrefix(p, "journal_mode") {
			continue
		}
		values.Add("_pragma", p)
	}
	return path + "?" + values.Encode(), memory, nil
}
