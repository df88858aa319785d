package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"prefabricator/internal/store"
	"prefabricator/internal/template"
)

const upsertAssetQuery = `
INSERT INTO assets (path, kind, schema_version, last_update_id, actor_count, component_count, source_file, source_hash, document, thumbnail, last_imported)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, now())
ON CONFLICT (path) DO UPDATE SET
    kind = EXCLUDED.kind,
    schema_version = EXCLUDED.schema_version,
    last_update_id = EXCLUDED.last_update_id,
    actor_count = EXCLUDED.actor_count,
    component_count = EXCLUDED.component_count,
    source_file = EXCLUDED.source_file,
    source_hash = EXCLUDED.source_hash,
    document = EXCLUDED.document,
    thumbnail = EXCLUDED.thumbnail,
    last_imported = now()
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

	_, err = c.pool.Exec(ctx, upsertAssetQuery,
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

	_, err = c.pool.Exec(ctx, upsertAssetQuery,
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
	err := c.pool.QueryRow(ctx,
		`SELECT document::text, thumbnail FROM assets WHERE path = $1 AND kind = $2`,
		path, store.KindTemplate,
	).Scan(&doc, &thumbnail)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset %s: %w", path, err)
	}
	return store.DecodeAsset([]byte(doc), thumbnail)
}

func (c *Client) GetCollection(ctx context.Context, path string) (*template.Collection, error) {
	var doc string
	err := c.pool.QueryRow(ctx,
		`SELECT document::text FROM assets WHERE path = $1 AND kind = $2`,
		path, store.KindCollection,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
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
WHERE ($1 = '' OR kind = $1)
  AND ($2 = '' OR starts_with(path, $2))
ORDER BY path
`

	rows, err := c.pool.Query(ctx, query, kind, prefix)
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
