package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"prefabricator/internal/store"
	"prefabricator/internal/template"
)

const upsertAssetQuery = `
	INSERT INTO assets (path, kind, schema_version, last_update_id, actor_count, component_count, source_file, source_hash, document, thumbnail, last_imported)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	ON CONFLICT (path) DO UPDATE SET
		kind = excluded.kind,
		schema_version = excluded.schema_version,
		last_update_id = excluded.last_update_id,
		actor_count = excluded.actor_count,
		component_count = excluded.component_count,
		source_file = excluded.source_file,
		source_hash = excluded.source_hash,
		document = excluded.document,
		thumbnail = excluded.thumbnail,
		last_imported = datetime('now')
	`

func (c *Client) UpsertAsset(ctx context.Context, in store.AssetInput) error {
	if in.Asset == nil || strings.TrimSpace(in.Asset.Path) == "" {
		return fmt.Errorf("upserting asset: path is required")
	}
	doc, err := store.EncodeAsset(in.Asset)
	if err != nil {
		return err
	}
	actors, components := store.Counts(in.Asset)

	_, err = c.db.ExecContext(ctx, upsertAssetQuery,
		in.Asset.Path,
		store.KindTemplate,
		in.Asset.SchemaVersion,
		in.Asset.LastUpdateID.String(),
		actors,
		components,
		in.SourceFile,
		in.SourceHash,
		string(doc),
		in.Asset.Thumbnail,
	)
	if err != nil {
		return fmt.Errorf("upserting asset %s: %w", in.Asset.Path, err)
	}
	return nil
}

func (c *Client) UpsertCollection(ctx context.Context, in store.CollectionInput) error {
	if in.Collection == nil || strings.TrimSpace(in.Collection.Path) == "" {
		return fmt.Errorf("upserting collection: path is required")
	}
	doc, err := store.EncodeCollection(in.Collection)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, upsertAssetQuery,
		in.Collection.Path,
		store.KindCollection,
		0,
		"",
		0,
		0,
		in.SourceFile,
		in.SourceHash,
		string(doc),
		nil,
	)
	if err != nil {
		return fmt.Errorf("upserting collection %s: %w", in.Collection.Path, err)
	}
	return nil
}

func (c *Client) GetAsset(ctx context.Context, path string) (*template.Asset, error) {
	var doc string
	var thumbnail []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT document, thumbnail FROM assets WHERE path = ? AND kind = ?`,
		path, store.KindTemplate,
	).Scan(&doc, &thumbnail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset %s: %w", path, err)
	}
	return store.DecodeAsset([]byte(doc), thumbnail)
}

func (c *Client) GetCollection(ctx context.Context, path string) (*template.Collection, error) {
	var doc string
	err := c.db.QueryRowContext(ctx,
		`SELECT document FROM assets WHERE path = ? AND kind = ?`,
		path, store.KindCollection,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting collection %s: %w", path, err)
	}
	return store.DecodeCollection([]byte(doc))
}

func (c *Client) ListAssets(ctx context.Context, kind, prefix string) ([]store.AssetSummary, error) {
	query := `
	SELECT path, kind, schema_version, last_update_id, actor_count, component_count, COALESCE(source_file, '')
	FROM assets
	WHERE (? = '' OR kind = ?)
	  AND (? = '' OR substr(path, 1, length(?)) = ?)
	ORDER BY path
	`

	rows, err := c.db.QueryContext(ctx, query, kind, kind, prefix, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	summaries := []store.AssetSummary{}
	for rows.Next() {
		var s store.AssetSummary
		err := rows.Scan(&s.Path, &s.Kind, &s.SchemaVersion, &s.LastUpdateID, &s.Actors, &s.Components, &s.SourceFile)
		if err != nil {
			return nil, fmt.Errorf("scanning asset summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating asset summaries: %w", err)
	}

	return summaries, nil
}

// RemoveStale deletes imported assets whose source file is no longer among
// currentSourceFiles. Assets saved without a source file are kept.
func (c *Client) RemoveStale(ctx context.Context, currentSourceFiles []string) (int64, error) {
	query := `
	DELETE FROM assets
	WHERE source_file IS NOT NULL
	  AND source_file <> ''
	`
	args := make([]any, len(currentSourceFiles))
	if len(currentSourceFiles) > 0 {
		placeholders := make([]string, len(currentSourceFiles))
		for i, f := range currentSourceFiles {
			placeholders[i] = "?"
			args[i] = f
		}
		query += fmt.Sprintf("  AND source_file NOT IN (%s)\n", strings.Join(placeholders, ", "))
	}

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale assets: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return affected, nil
}

func (c *Client) GetSourceHashes(ctx context.Context) (map[string]string, error) {
	query := `
	SELECT source_file, COALESCE(source_hash, '') FROM assets
	WHERE source_file IS NOT NULL
	  AND source_file <> ''
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning source hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source hashes: %w", err)
	}

	return hashes, nil
}
