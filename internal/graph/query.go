package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"prefabricator/internal/store"
)

const maxDepth = 10

// Dependents lists the templates and collections that reach path through
// NESTS or PICKS edges within depth hops, each at its shortest distance.
func (c *Client) Dependents(ctx context.Context, path string, depth int) ([]store.Dependent, error) {
	if depth <= 0 {
		depth = 1
	}
	if depth > maxDepth {
		depth = maxDepth
	}

	session := c.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
MATCH p = (d:Asset)-[:NESTS|PICKS*1..%d]->(t:Asset {path: $path})
WHERE d.path <> $path AND d._placeholder IS NULL
RETURN d.path AS path, min(length(p)) AS depth
ORDER BY depth, path
`, depth)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"path": path})
		if err != nil {
			return nil, err
		}
		deps := []store.Dependent{}
		for res.Next(ctx) {
			record := res.Record()
			pathValue, _ := record.Get("path")
			depthValue, _ := record.Get("depth")
			d, _ := depthValue.(int64)
			deps = append(deps, store.Dependent{Path: toString(pathValue), Depth: int(d)})
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return deps, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing dependents of %s: %w", path, err)
	}

	return result.([]store.Dependent), nil
}

// DanglingReferences lists NESTS and PICKS edges whose target was never
// synced as a real asset.
func (c *Client) DanglingReferences(ctx context.Context) ([]store.Reference, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (a:Asset)-[r:NESTS|PICKS]->(b:_Placeholder)
RETURN a.path AS from, b.path AS to, type(r) AS type
ORDER BY from, to
`, nil)
		if err != nil {
			return nil, err
		}
		refs := []store.Reference{}
		for res.Next(ctx) {
			record := res.Record()
			from, _ := record.Get("from")
			to, _ := record.Get("to")
			typ, _ := record.Get("type")
			refs = append(refs, store.Reference{From: toString(from), To: toString(to), Type: toString(typ)})
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return refs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing dangling references: %w", err)
	}

	return result.([]store.Reference), nil
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}
