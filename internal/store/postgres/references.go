package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"prefabricator/internal/store"
)

func (c *Client) ReplaceReferences(ctx context.Context, from string, refs []store.Reference) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var srcID int64
	err = tx.QueryRow(ctx, `SELECT id FROM assets WHERE path = $1`, from).Scan(&srcID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("replacing references: unknown asset %s", from)
	}
	if err != nil {
		return fmt.Errorf("replacing references of %s: %w", from, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM asset_refs WHERE src_id = $1`, srcID); err != nil {
		return fmt.Errorf("clearing references of %s: %w", from, err)
	}

	batch := &pgx.Batch{}
	for _, ref := range refs {
		batch.Queue(
			`INSERT INTO asset_refs (src_id, dst_path, ref_type) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			srcID, ref.To, ref.Type,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting references of %s: %w", from, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing references of %s: %w", from, err)
	}
	return nil
}

func (c *Client) ListReferences(ctx context.Context, path, direction string) ([]store.Reference, error) {
	var query string
	switch direction {
	case store.DirectionOutgoing, "":
		query = `
SELECT a.path, r.dst_path, r.ref_type FROM asset_refs r
JOIN assets a ON r.src_id = a.id
WHERE a.path = $1
ORDER BY r.ref_type, r.dst_path
`
	case store.DirectionIncoming:
		query = `
SELECT a.path, r.dst_path, r.ref_type FROM asset_refs r
JOIN assets a ON r.src_id = a.id
WHERE r.dst_path = $1
ORDER BY r.ref_type, a.path
`
	case store.DirectionBoth:
		query = `
SELECT a.path, r.dst_path, r.ref_type FROM asset_refs r
JOIN assets a ON r.src_id = a.id
WHERE a.path = $1 OR r.dst_path = $1
ORDER BY r.ref_type, a.path, r.dst_path
`
	default:
		return nil, fmt.Errorf("unknown direction: %s", direction)
	}

	rows, err := c.pool.Query(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("listing references: %w", err)
	}
	defer rows.Close()

	refs := []store.Reference{}
	for rows.Next() {
		var ref store.Reference
		if err := rows.Scan(&ref.From, &ref.To, &ref.Type); err != nil {
			return nil, fmt.Errorf("scanning reference: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating references: %w", err)
	}
	return refs, nil
}

func (c *Client) Dependents(ctx context.Context, path string, depth int) ([]store.Dependent, error) {
	if depth <= 0 {
		depth = 1
	}
	query := `
WITH RECURSIVE deps(path, depth) AS (
    SELECT a.path, 1 FROM asset_refs r
    JOIN assets a ON r.src_id = a.id
    WHERE r.dst_path = $1 AND r.ref_type <> $2
    UNION
    SELECT a.path, d.depth + 1 FROM deps d
    JOIN asset_refs r ON r.dst_path = d.path
    JOIN assets a ON r.src_id = a.id
    WHERE d.depth < $3 AND r.ref_type <> $2
)
SELECT path, MIN(depth) AS depth FROM deps
WHERE path <> $1
GROUP BY path
ORDER BY depth, path
`

	rows, err := c.pool.Query(ctx, query, path, store.RefUsesAsset, depth)
	if err != nil {
		return nil, fmt.Errorf("listing dependents of %s: %w", path, err)
	}
	defer rows.Close()

	deps := []store.Dependent{}
	for rows.Next() {
		var d store.Dependent
		if err := rows.Scan(&d.Path, &d.Depth); err != nil {
			return nil, fmt.Errorf("scanning dependent: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependents: %w", err)
	}
	return deps, nil
}
