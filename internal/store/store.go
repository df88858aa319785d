package store

import (
	"context"

	"prefabricator/internal/template"
)

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	UpsertAsset(ctx context.Context, in AssetInput) error
	UpsertCollection(ctx context.Context, in CollectionInput) error
	ReplaceReferences(ctx context.Context, from string, refs []Reference) error
	RemoveStale(ctx context.Context, currentSourceFiles []string) (int64, error)
	GetSourceHashes(ctx context.Context) (map[string]string, error)

	GetAsset(ctx context.Context, path string) (*template.Asset, error)
	GetCollection(ctx context.Context, path string) (*template.Collection, error)
	ListAssets(ctx context.Context, kind, prefix string) ([]AssetSummary, error)
	ListReferences(ctx context.Context, path, direction string) ([]Reference, error)
	Dependents(ctx context.Context, path string, depth int) ([]Dependent, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// LoadLibrary reads every stored template and collection into a new library.
func LoadLibrary(ctx context.Context, s Store) (*template.Library, error) {
	lib := template.NewLibrary()
	summaries, err := s.ListAssets(ctx, "", "")
	if err != nil {
		return nil, err
	}
	for _, summary := range summaries {
		switch summary.Kind {
		case KindTemplate:
			a, err := s.GetAsset(ctx, summary.Path)
			if err != nil {
				return nil, err
			}
			if a != nil {
				lib.Put(a)
			}
		case KindCollection:
			c, err := s.GetCollection(ctx, summary.Path)
			if err != nil {
				return nil, err
			}
			if c != nil {
				lib.PutCollection(c)
			}
		}
	}
	return lib, nil
}

// SaveAsset stores a together with the references it makes.
func SaveAsset(ctx context.Context, s Store, in AssetInput) error {
	if err := s.UpsertAsset(ctx, in); err != nil {
		return err
	}
	return s.ReplaceReferences(ctx, in.Asset.Path, AssetReferences(in.Asset))
}

// AssetReferences lists the outgoing references of a template: nested
// instance templates first, then soft asset references.
func AssetReferences(a *template.Asset) []Reference {
	var refs []Reference
	nested := make(map[string]bool)
	for _, p := range a.NestedTemplates() {
		if nested[p] {
			continue
		}
		nested[p] = true
		refs = append(refs, Reference{From: a.Path, To: p, Type: RefNests})
	}
	for _, p := range a.References() {
		if !nested[p] {
			refs = append(refs, Reference{From: a.Path, To: p, Type: RefUsesAsset})
		}
	}
	return refs
}

// CollectionReferences lists the templates a collection can pick.
func CollectionReferences(c *template.Collection) []Reference {
	var refs []Reference
	seen := make(map[string]bool)
	for _, e := range c.Entries {
		if e.Template == "" || seen[e.Template] {
			continue
		}
		seen[e.Template] = true
		refs = append(refs, Reference{From: c.Path, To: e.Template, Type: RefPicks})
	}
	return refs
}
