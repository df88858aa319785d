package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prefabricator/internal/store"
)

// ReplaceReferences swaps the outgoing references of from for refs.
func (c *Client) ReplaceReferences(ctx context.Context, from string, refs []store.Reference) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var srcID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM assets WHERE path = ?`, from).Scan(&srcID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("replacing references: unknown asset %s", from)
	}
	if err != nil {
		return fmt.Errorf("replacing references of %s: %w", from, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM asset_refs WHERE src_id = ?`, srcID); err != nil {
		return fmt.Errorf("clearing references of %s: %w", from, err)
	}
	for _, ref := range refs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO asset_refs (src_id, dst_path, ref_type) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			srcID, ref.To, ref.Type,
		)
		if err != nil {
			return fmt.Errorf("inserting reference %s -> %s: %w", from, ref.To, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing references of %s: %w", from, err)
	}
	return nil
}

func (c *Client) ListReferences(ctx context.Context, path, direction string) ([]store.Reference, error) {
	var query string
	var args []any
	switch direction {
	case store.DirectionOutgoing, "":
		query = `
		SELECT a.path, r.dst_path, r.ref_type FROM asset_refs r
		JOIN assets a ON r.src_id = a.id
		WHERE a.path = ?
		ORDER BY r.ref_type, r.dst_path
		`
		args = []any{path}
	case store.DirectionIncoming:
		query = `
		SELECT a.path, r.dst_path, r.ref_type FROM asset_refs r
		JOIN assets a ON r.src_id = a.id
		WHERE r.dst_path = ?
		ORDER BY r.ref_type, a.path
		`
		args = []any{path}
	case store.DirectionBoth:
		query = `
		SELECT a.path, r.dst_path, r.ref_type FROM asset_refs r
		JOIN assets a ON r.src_id = a.id
		WHERE a.path = ? OR r.dst_path = ?
		ORDER BY r.ref_type, a.path, r.dst_path
		`
		args = []any{path, path}
	default:
		return nil, fmt.Errorf("unknown direction: %s", direction)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
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

// Dependents walks incoming references from path up to depth hops and
// returns each dependent once at its shortest distance.
func (c *Client) Dependents(ctx context.Context, path string, depth int) ([]store.Dependent, error) {
	if depth <= 0 {
		depth = 1
	}
	query := `
	WITH RECURSIVE deps(path, depth) AS (
		SELECT a.path, 1 FROM asset_refs r
		JOIN assets a ON r.src_id = a.id
		WHERE r.dst_path = ? AND r.ref_type <> ?
		UNION
		SELECT a.path, d.depth + 1 FROM deps d
		JOIN asset_refs r ON r.dst_path = d.path
		JOIN assets a ON r.src_id = a.id
		WHERE d.depth < ? AND r.ref_type <> ?
	)
	SELECT path, MIN(depth) AS depth FROM deps
	WHERE path <> ?
	GROUP BY path
	ORDER BY depth, path
	`

	rows, err := c.db.QueryContext(ctx, query, path, store.RefUsesAsset, depth, store.RefUsesAsset, path)
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
