package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// RemoveStaleNodes deletes synced assets whose path is not in keep, then
// drops placeholders nothing points at any more.
func (c *Client) RemoveStaleNodes(ctx context.Context, keep []string) (int64, error) {
	if keep == nil {
		keep = []string{}
	}
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:Asset)
WHERE n._placeholder IS NULL
  AND NOT n.path IN $keep
DETACH DELETE n
RETURN count(n) AS deleted
`, map[string]any{"keep": keep})
		if err != nil {
			return nil, err
		}
		var deleted int64
		if res.Next(ctx) {
			value, _ := res.Record().Get("deleted")
			deleted, _ = value.(int64)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		if _, err := tx.Run(ctx, `
MATCH (p:_Placeholder)
WHERE NOT (p)<--()
DELETE p
`, nil); err != nil {
			return nil, err
		}
		return deleted, nil
	})
	if err != nil {
		return 0, fmt.Errorf("removing stale nodes: %w", err)
	}

	return result.(int64), nil
}
