package graph

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"prefabricator/internal/store"
)

var labelPattern = regexp.MustCompile(`^[A-Z0-9_]+$`)

var kindLabels = map[string]string{
	store.KindTemplate:   "Template",
	store.KindCollection: "Collection",
}

// AssetNode is the graph view of a stored template or collection. Token
// changes whenever the stored document does.
type AssetNode struct {
	Path          string
	Kind          string
	SchemaVersion int
	Actors        int
	Components    int
	SourceFile    string
	Token         string
}

// NodeFromSummary builds the node for a stored asset.
func NodeFromSummary(s store.AssetSummary, sourceHash string) AssetNode {
	token := s.LastUpdateID
	if token == "" {
		token = sourceHash
	}
	return AssetNode{
		Path:          s.Path,
		Kind:          s.Kind,
		SchemaVersion: s.SchemaVersion,
		Actors:        s.Actors,
		Components:    s.Components,
		SourceFile:    s.SourceFile,
		Token:         token,
	}
}

func (c *Client) UpsertAsset(ctx context.Context, n AssetNode) error {
	if strings.TrimSpace(n.Path) == "" {
		return fmt.Errorf("upserting asset node: path is required")
	}
	label, ok := kindLabels[n.Kind]
	if !ok {
		return fmt.Errorf("upserting asset node %s: unknown kind %q", n.Path, n.Kind)
	}

	session := c.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
MERGE (n:Asset {path: $path})
SET n:%s,
    n.kind = $kind,
    n.schema_version = $schema_version,
    n.actor_count = $actor_count,
    n.component_count = $component_count,
    n.source_file = $source_file,
    n.token = $token,
    n.last_synced = datetime()
REMOVE n._placeholder, n:_Placeholder
`, label)

	params := map[string]any{
		"path":            n.Path,
		"kind":            n.Kind,
		"schema_version":  n.SchemaVersion,
		"actor_count":     n.Actors,
		"component_count": n.Components,
		"source_file":     n.SourceFile,
		"token":           n.Token,
	}

	if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	}); err != nil {
		return fmt.Errorf("upserting asset node %s: %w", n.Path, err)
	}
	return nil
}

// ReplaceReferences swaps the outgoing reference edges of from. Targets not
// yet in the graph are created as placeholders.
func (c *Client) ReplaceReferences(ctx context.Context, from string, refs []store.Reference) error {
	for _, ref := range refs {
		if !labelPattern.MatchString(ref.Type) {
			return fmt.Errorf("invalid reference type: %s", ref.Type)
		}
	}

	session := c.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
MATCH (a:Asset {path: $from})-[r:NESTS|PICKS|USES_ASSET]->()
DELETE r
`, map[string]any{"from": from}); err != nil {
			return nil, err
		}
		for _, ref := range refs {
			query := fmt.Sprintf(`
MATCH (a:Asset {path: $from})
MERGE (b:Asset {path: $to})
ON CREATE SET b._placeholder = true, b:_Placeholder
MERGE (a)-[:%s]->(b)
`, ref.Type)
			if _, err := tx.Run(ctx, query, map[string]any{"from": from, "to": ref.To}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("replacing references of %s: %w", from, err)
	}
	return nil
}
