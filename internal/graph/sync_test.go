package graph

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"

	"prefabricator/internal/property"
	"prefabricator/internal/scene"
	"prefabricator/internal/store"
	"prefabricator/internal/store/sqlite"
	"prefabricator/internal/template"
)

type fakeMirror struct {
	tokens  map[string]string
	nodes   map[string]AssetNode
	refs    map[string][]store.Reference
	removed []string
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		tokens: map[string]string{},
		nodes:  map[string]AssetNode{},
		refs:   map[string][]store.Reference{},
	}
}

func (m *fakeMirror) SyncTokens(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(m.tokens))
	for k, v := range m.tokens {
		out[k] = v
	}
	return out, nil
}

func (m *fakeMirror) UpsertAsset(ctx context.Context, n AssetNode) error {
	m.nodes[n.Path] = n
	m.tokens[n.Path] = n.Token
	return nil
}

func (m *fakeMirror) ReplaceReferences(ctx context.Context, from string, refs []store.Reference) error {
	m.refs[from] = refs
	return nil
}

func (m *fakeMirror) RemoveStaleNodes(ctx context.Context, keep []string) (int64, error) {
	kept := map[string]bool{}
	for _, k := range keep {
		kept[k] = true
	}
	var n int64
	for path := range m.nodes {
		if !kept[path] {
			delete(m.nodes, path)
			delete(m.tokens, path)
			delete(m.refs, path)
			m.removed = append(m.removed, path)
			n++
		}
	}
	return n, nil
}

func nestingAsset(path string, nested ...string) *template.Asset {
	a := template.New(path)
	a.ActorData = []*template.ActorRecord{{
		Item: template.Item{ItemID: uuid.New(), ClassPath: scene.StaticMeshActorClass},
	}}
	for _, n := range nested {
		rec := property.NewRecord(template.TemplateField)
		rec.Ensure(property.FieldPath("", template.TemplateField)).ExportedValue = n
		a.ActorData = append(a.ActorData, &template.ActorRecord{
			Item: template.Item{ItemID: uuid.New(), ClassPath: template.InstanceActorClass},
			Components: []*template.ComponentRecord{{
				Name: "PrefabComponent",
				Item: template.Item{
					ItemID:     uuid.New(),
					ClassPath:  template.InstanceComponentClass,
					Properties: property.Records{template.TemplateField: rec},
				},
			}},
		})
	}
	return a
}

func memoryStore(t *testing.T) *sqlite.Client {
	t.Helper()
	ctx := context.Background()
	s, err := sqlite.New(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close(ctx) })
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return s
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	s := memoryStore(t)
	for _, a := range []*template.Asset{
		nestingAsset("/Game/Props/Crate"),
		nestingAsset("/Game/Rooms/Storage", "/Game/Props/Crate"),
	} {
		if err := store.SaveAsset(ctx, s, store.AssetInput{Asset: a}); err != nil {
			t.Fatalf("saving %s: %v", a.Path, err)
		}
	}

	mirror := newFakeMirror()
	result, err := Sync(ctx, s, mirror, false, nil)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.AssetsSynced != 2 || result.AssetsSkipped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.ReferencesSynced != 1 {
		t.Fatalf("expected 1 reference, got %d", result.ReferencesSynced)
	}
	refs := mirror.refs["/Game/Rooms/Storage"]
	if len(refs) != 1 || refs[0].To != "/Game/Props/Crate" || refs[0].Type != store.RefNests {
		t.Fatalf("unexpected references: %+v", refs)
	}
	if mirror.nodes["/Game/Props/Crate"].Kind != store.KindTemplate {
		t.Fatalf("expected template kind, got %q", mirror.nodes["/Game/Props/Crate"].Kind)
	}

	t.Run("unchanged assets are skipped", func(t *testing.T) {
		result, err := Sync(ctx, s, mirror, false, nil)
		if err != nil {
			t.Fatalf("sync: %v", err)
		}
		if result.AssetsSynced != 0 || result.AssetsSkipped != 2 {
			t.Fatalf("unexpected result: %+v", result)
		}
	})

	t.Run("full resyncs everything", func(t *testing.T) {
		result, err := Sync(ctx, s, mirror, true, nil)
		if err != nil {
			t.Fatalf("sync: %v", err)
		}
		if result.AssetsSynced != 2 {
			t.Fatalf("expected 2 synced, got %+v", result)
		}
	})

	t.Run("removed assets leave the graph", func(t *testing.T) {
		mirror.nodes["/Game/Gone"] = AssetNode{Path: "/Game/Gone", Kind: store.KindTemplate}
		result, err := Sync(ctx, s, mirror, false, nil)
		if err != nil {
			t.Fatalf("sync: %v", err)
		}
		if result.NodesRemoved != 1 {
			t.Fatalf("expected 1 removed node, got %d", result.NodesRemoved)
		}
		sort.Strings(mirror.removed)
		if mirror.removed[0] != "/Game/Gone" {
			t.Fatalf("unexpected removed nodes: %v", mirror.removed)
		}
	})
}

func TestNodeFromSummary(t *testing.T) {
	n := NodeFromSummary(store.AssetSummary{Path: "/Game/C", Kind: store.KindCollection}, "hash-c")
	if n.Token != "hash-c" {
		t.Fatalf("expected source hash token, got %q", n.Token)
	}
	n = NodeFromSummary(store.AssetSummary{Path: "/Game/T", Kind: store.KindTemplate, LastUpdateID: "u1"}, "hash-t")
	if n.Token != "u1" {
		t.Fatalf("expected update id token, got %q", n.Token)
	}
}
