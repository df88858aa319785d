package validate

import (
	"context"

	"prefabricator/internal/class"
	"prefabricator/internal/store"
	"prefabricator/internal/template"
)

// Source is the read side of the asset store a validation runs against.
type Source interface {
	ListAssets(ctx context.Context, kind, prefix string) ([]store.AssetSummary, error)
	GetAsset(ctx context.Context, path string) (*template.Asset, error)
	GetCollection(ctx context.Context, path string) (*template.Collection, error)
}

// Classes resolves class paths; *class.Registry satisfies it.
type Classes interface {
	Lookup(path string) (*class.Class, bool)
}
