package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// SyncTokens maps every synced asset path to the token it was synced with.
func (c *Client) SyncTokens(ctx context.Context) (map[string]string, error) {
	if c == nil {
		return nil, fmt.Errorf("graph client is nil")
	}

	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (n:Asset)
WHERE n._placeholder IS NULL
RETURN n.path AS path, n.token AS token`, nil)
		if err != nil {
			return nil, err
		}
		values := make(map[string]string)
		for res.Next(ctx) {
			record := res.Record()
			pathValue, _ := record.Get("path")
			path, ok := pathValue.(string)
			if !ok || path == "" {
				continue
			}
			tokenValue, _ := record.Get("token")
			token, _ := tokenValue.(string)
			values[path] = token
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return values, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query sync tokens: %w", err)
	}

	return result.(map[string]string), nil
}
