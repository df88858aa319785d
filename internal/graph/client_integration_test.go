//go:build integration

package graph

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"prefabricator/internal/store"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := NewClient(ctx, "bolt://localhost:7687", "neo4j", "changeme", "neo4j")
	if err != nil {
		t.Fatalf("connecting to test neo4j: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(ctx) })
	return client
}

func clearDatabase(t *testing.T, client *Client) {
	t.Helper()
	ctx := context.Background()
	session := client.session(ctx)
	defer session.Close(ctx)
	if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
		return nil, err
	}); err != nil {
		t.Fatalf("clearing database: %v", err)
	}
}

func TestNewClient_BadCredentials(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, "bolt://localhost:7687", "neo4j", "wrong", "neo4j")
	if err == nil {
		_ = client.Close(ctx)
		t.Fatalf("expected error")
	}
}

func TestEnsureIndexes(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	if err := client.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes (idempotent): %v", err)
	}

	rows, err := client.RunCypher(ctx, "SHOW CONSTRAINTS YIELD name RETURN name", nil)
	if err != nil {
		t.Fatalf("list constraints: %v", err)
	}
	found := false
	for _, row := range rows {
		if row["name"] == "asset_unique_path" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected constraint asset_unique_path")
	}
}

func TestAssetGraph(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	clearDatabase(t, client)

	nodes := []AssetNode{
		{Path: "/Game/Props/Crate", Kind: store.KindTemplate, Token: "t1", SourceFile: "crate.yaml"},
		{Path: "/Game/Rooms/Storage", Kind: store.KindTemplate, Token: "t2"},
		{Path: "/Game/Levels/Dock", Kind: store.KindTemplate, Token: "t3"},
	}
	for _, n := range nodes {
		if err := client.UpsertAsset(ctx, n); err != nil {
			t.Fatalf("upsert asset: %v", err)
		}
	}
	if err := client.ReplaceReferences(ctx, "/Game/Rooms/Storage", []store.Reference{
		{From: "/Game/Rooms/Storage", To: "/Game/Props/Crate", Type: store.RefNests},
		{From: "/Game/Rooms/Storage", To: "/Game/Props/Missing", Type: store.RefNests},
	}); err != nil {
		t.Fatalf("replace references: %v", err)
	}
	if err := client.ReplaceReferences(ctx, "/Game/Levels/Dock", []store.Reference{
		{From: "/Game/Levels/Dock", To: "/Game/Rooms/Storage", Type: store.RefNests},
	}); err != nil {
		t.Fatalf("replace references: %v", err)
	}

	deps, err := client.Dependents(ctx, "/Game/Props/Crate", 5)
	if err != nil {
		t.Fatalf("dependents: %v", err)
	}
	if len(deps) != 2 || deps[0].Path != "/Game/Rooms/Storage" || deps[1].Depth != 2 {
		t.Fatalf("unexpected dependents: %+v", deps)
	}

	dangling, err := client.DanglingReferences(ctx)
	if err != nil {
		t.Fatalf("dangling references: %v", err)
	}
	if len(dangling) != 1 || dangling[0].To != "/Game/Props/Missing" {
		t.Fatalf("unexpected dangling references: %+v", dangling)
	}

	tokens, err := client.SyncTokens(ctx)
	if err != nil {
		t.Fatalf("sync tokens: %v", err)
	}
	if len(tokens) != 3 || tokens["/Game/Props/Crate"] != "t1" {
		t.Fatalf("unexpected tokens: %v", tokens)
	}

	if err := client.ReplaceReferences(ctx, "/Game/Levels/Dock", []store.Reference{
		{From: "/Game/Levels/Dock", To: "/Game/X", Type: "bad type"},
	}); err == nil {
		t.Fatalf("expected invalid reference type error")
	}

	removed, err := client.RemoveStaleNodes(ctx, []string{"/Game/Props/Crate", "/Game/Rooms/Storage"})
	if err != nil {
		t.Fatalf("remove stale: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
}
