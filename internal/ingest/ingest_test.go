package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"prefabricator/internal/config"
	"prefabricator/internal/store"
	"prefabricator/internal/template"
)

type mockStore struct {
	assets       []store.AssetInput
	collections  []store.CollectionInput
	references   map[string][]store.Reference
	removeCalls  [][]string
	ensureCalled bool
	failUpsert   string
	sourceHashes map[string]string
}

func (m *mockStore) EnsureSchema(ctx context.Context) error {
	m.ensureCalled = true
	return nil
}

func (m *mockStore) GetSourceHashes(ctx context.Context) (map[string]string, error) {
	if m.sourceHashes == nil {
		return map[string]string{}, nil
	}
	return m.sourceHashes, nil
}

func (m *mockStore) UpsertAsset(ctx context.Context, in store.AssetInput) error {
	if m.failUpsert != "" && in.Asset.Path == m.failUpsert {
		return errors.New("forced error")
	}
	m.assets = append(m.assets, in)
	return nil
}

func (m *mockStore) UpsertCollection(ctx context.Context, in store.CollectionInput) error {
	m.collections = append(m.collections, in)
	return nil
}

func (m *mockStore) ReplaceReferences(ctx context.Context, from string, refs []store.Reference) error {
	if m.references == nil {
		m.references = make(map[string][]store.Reference)
	}
	m.references[from] = refs
	return nil
}

func (m *mockStore) RemoveStale(ctx context.Context, currentSourceFiles []string) (int64, error) {
	m.removeCalls = append(m.removeCalls, currentSourceFiles)
	return 0, nil
}

func (m *mockStore) asset(path string) *template.Asset {
	for _, in := range m.assets {
		if in.Asset.Path == path {
			return in.Asset
		}
	}
	return nil
}

func TestRun_BasicImport(t *testing.T) {
	cfg := testProjectConfig(t)
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !db.ensureCalled {
		t.Fatalf("expected ensure schema")
	}
	if result.AssetsUpserted != 2 {
		t.Fatalf("expected 2 templates upserted, got %d", result.AssetsUpserted)
	}
	if result.CollectionsUpserted != 1 {
		t.Fatalf("expected 1 collection upserted, got %d", result.CollectionsUpserted)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if db.assets[0].SourceHash == "" || db.assets[0].SourceFile == "" {
		t.Fatalf("expected source file and hash on upsert")
	}
}

func TestRun_SkipsDocumentsWithoutKind(t *testing.T) {
	cfg := testProjectConfig(t)
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.FilesSkipped != 1 {
		t.Fatalf("expected notes.yaml skipped, got %d skipped", result.FilesSkipped)
	}
}

func TestRun_References(t *testing.T) {
	cfg := testProjectConfig(t)
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ReferencesUpserted != 4 {
		t.Fatalf("expected 4 references, got %d", result.ReferencesUpserted)
	}

	nests := db.references["/Game/Rooms/Storage"]
	if len(nests) != 1 || nests[0].Type != store.RefNests || nests[0].To != "/Game/Props/Crate" {
		t.Fatalf("unexpected storage references: %+v", nests)
	}
	uses := db.references["/Game/Props/Crate"]
	if len(uses) != 1 || uses[0].Type != store.RefUsesAsset || uses[0].To != "/Game/Meshes/Crate.Crate" {
		t.Fatalf("unexpected crate references: %+v", uses)
	}
	if picks := db.references["/Game/Props/Random"]; len(picks) != 2 {
		t.Fatalf("expected 2 picks, got %+v", picks)
	}
}

func TestRun_UpgradesOldDocuments(t *testing.T) {
	cfg := testProjectConfig(t)
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Upgraded != 1 {
		t.Fatalf("expected 1 upgrade, got %d", result.Upgraded)
	}
	storage := db.asset("/Game/Rooms/Storage")
	if storage == nil {
		t.Fatalf("expected storage template")
	}
	if storage.SchemaVersion != template.Latest {
		t.Fatalf("expected latest schema, got %d", storage.SchemaVersion)
	}
	if storage.LastUpdateID == uuid.Nil {
		t.Fatalf("expected derived update id")
	}

	crate := db.asset("/Game/Props/Crate")
	if crate.LastUpdateID.String() != "7b0d1c8e-2f3a-4c59-9a51-0f6f4d1c2e3b" {
		t.Fatalf("expected update id from document, got %s", crate.LastUpdateID)
	}
	mesh := crate.ActorData[0].Components[0].Properties["StaticMesh"].Entries["|StaticMesh"]
	if len(mesh.AssetMappings) != 1 {
		t.Fatalf("expected extracted asset mapping, got %+v", mesh.AssetMappings)
	}
}

func TestRun_ExcludedPaths(t *testing.T) {
	cfg := testProjectConfig(t)
	cfg.Assets.Exclude = nil
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected broken document error once exclusion is lifted, got %v", result.Errors)
	}
}

func TestRun_ContinuesOnError(t *testing.T) {
	cfg := testProjectConfig(t)
	db := &mockStore{failUpsert: "/Game/Props/Crate"}

	result, err := Run(context.Background(), cfg, db, Options{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if result.AssetsUpserted != 1 {
		t.Fatalf("expected the other template to import, got %d", result.AssetsUpserted)
	}
}

func TestRun_DuplicateItemIDs(t *testing.T) {
	dir := t.TempDir()
	doc := `kind: template
path: /Game/Dup
actors:
  - item_id: 1c5b0f0e-8a3d-4b8e-b2a7-3f1d2c4e5a60
    class: /Script/Engine.StaticMeshActor
  - item_id: 1c5b0f0e-8a3d-4b8e-b2a7-3f1d2c4e5a60
    class: /Script/Engine.StaticMeshActor
`
	if err := os.WriteFile(filepath.Join(dir, "dup.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	cfg := &config.ProjectConfig{Project: "test", Version: 1, Assets: config.AssetsConfig{Paths: []string{dir}}}
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], template.ErrDuplicateItem) {
		t.Fatalf("expected duplicate item error, got %v", result.Errors)
	}
	if len(db.assets) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestRun_DuplicateAssetPath(t *testing.T) {
	dir := t.TempDir()
	doc := "kind: collection\npath: /Game/Same\nentries: []\n"
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	cfg := &config.ProjectConfig{Project: "test", Version: 1, Assets: config.AssetsConfig{Paths: []string{dir}}}
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.CollectionsUpserted != 1 || len(result.Errors) != 1 {
		t.Fatalf("expected one import and one error, got %+v", result)
	}
}

func TestRun_RemoveStale(t *testing.T) {
	cfg := testProjectConfig(t)
	db := &mockStore{}

	_, err := Run(context.Background(), cfg, db, Options{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(db.removeCalls) != 1 {
		t.Fatalf("expected remove stale call")
	}
	if len(db.removeCalls[0]) != 4 {
		t.Fatalf("expected 4 current files, got %v", db.removeCalls[0])
	}
}

func TestRun_IncrementalSkip(t *testing.T) {
	cfg := testProjectConfig(t)
	path := filepath.Join("testdata", "assets", "props", "crate.yaml")
	hash, err := computeHash(path)
	if err != nil {
		t.Fatalf("compute hash: %v", err)
	}
	db := &mockStore{sourceHashes: map[string]string{path: hash}}

	_, err = Run(context.Background(), cfg, db, Options{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if db.asset("/Game/Props/Crate") != nil {
		t.Fatalf("expected crate to be skipped")
	}
	if _, ok := db.references["/Game/Props/Crate"]; ok {
		t.Fatalf("expected crate references to be skipped")
	}
}

func TestRun_FullImportOverridesHashes(t *testing.T) {
	cfg := testProjectConfig(t)
	path := filepath.Join("testdata", "assets", "props", "crate.yaml")
	hash, err := computeHash(path)
	if err != nil {
		t.Fatalf("compute hash: %v", err)
	}
	db := &mockStore{sourceHashes: map[string]string{path: hash}}

	_, err = Run(context.Background(), cfg, db, Options{Full: true}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if db.asset("/Game/Props/Crate") == nil {
		t.Fatalf("expected crate to be imported in full mode")
	}
}

func TestIsYAML(t *testing.T) {
	cases := []struct {
		name     string
		expected bool
	}{
		{name: "crate.yaml", expected: true},
		{name: "crate.YML", expected: true},
		{name: "README.md", expected: false},
		{name: "yaml", expected: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isYAML(tc.name); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func testProjectConfig(t *testing.T) *config.ProjectConfig {
	t.Helper()
	root := filepath.Join("testdata", "assets")
	return &config.ProjectConfig{
		Project: "test",
		Version: 1,
		Assets: config.AssetsConfig{
			Paths:   []string{root},
			Exclude: []string{filepath.Join(root, "scratch")},
		},
	}
}
