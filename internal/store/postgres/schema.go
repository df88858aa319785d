package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// Executed as one implicit transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS assets (
    id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    path            TEXT NOT NULL,
    kind            TEXT NOT NULL,
    schema_version  INTEGER NOT NULL DEFAULT 0,
    last_update_id  TEXT DEFAULT '',
    actor_count     INTEGER DEFAULT 0,
    component_count INTEGER DEFAULT 0,
    source_file     TEXT,
    source_hash     TEXT,
    document        JSONB NOT NULL DEFAULT '{}',
    thumbnail       BYTEA,
    last_imported   TIMESTAMPTZ DEFAULT now(),
    CONSTRAINT uq_asset_path UNIQUE (path)
);

CREATE TABLE IF NOT EXISTS asset_refs (
    id       BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    src_id   BIGINT NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
    dst_path TEXT NOT NULL,
    ref_type TEXT NOT NULL,
    CONSTRAINT uq_ref UNIQUE (src_id, dst_path, ref_type)
);

CREATE INDEX IF NOT EXISTS idx_assets_kind ON assets (kind);
CREATE INDEX IF NOT EXISTS idx_assets_source_file ON assets (source_file);
CREATE INDEX IF NOT EXISTS idx_assets_path_prefix ON assets (path text_pattern_ops);
CREATE INDEX IF NOT EXISTS idx_refs_src ON asset_refs (src_id);
CREATE INDEX IF NOT EXISTS idx_refs_dst ON asset_refs (dst_path);
CREATE INDEX IF NOT EXISTS idx_refs_dst_type ON asset_refs (dst_path, ref_type);
`

	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("executing DDL: %w", err)
	}
	return nil
}
