package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS assets (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		path            TEXT NOT NULL,
		kind            TEXT NOT NULL,
		schema_version  INTEGER NOT NULL DEFAULT 0,
		last_update_id  TEXT DEFAULT '',
		actor_count     INTEGER DEFAULT 0,
		component_count INTEGER DEFAULT 0,
		source_file     TEXT,
		source_hash     TEXT,
		document        TEXT NOT NULL DEFAULT '{}',
		thumbnail       BLOB,
		last_imported   TEXT DEFAULT (datetime('now')),
		CONSTRAINT uq_asset_path UNIQUE (path)
	);

	CREATE TABLE IF NOT EXISTS asset_refs (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		src_id   INTEGER NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
		dst_path TEXT NOT NULL,
		ref_type TEXT NOT NULL,
		CONSTRAINT uq_ref UNIQUE (src_id, dst_path, ref_type)
	);

	CREATE INDEX IF NOT EXISTS idx_assets_kind ON assets (kind);
	CREATE INDEX IF NOT EXISTS idx_assets_source_file ON assets (source_file);
	CREATE INDEX IF NOT EXISTS idx_refs_src ON asset_refs (src_id);
	CREATE INDEX IF NOT EXISTS idx_refs_dst ON asset_refs (dst_path);
	CREATE INDEX IF NOT EXISTS idx_refs_dst_type ON asset_refs (dst_path, ref_type);
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

// splitStatements splits a DDL script on statement-terminating semicolons,
// dropping comment lines and blank statements.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(stripped, ";") {
			flush()
		}
	}
	flush()

	return statements
}
