package ingest

import (
	"context"

	"prefabricator/internal/store"
)

// Store is the subset of store.Store an import writes through.
type Store interface {
	EnsureSchema(ctx context.Context) error
	GetSourceHashes(ctx context.Context) (map[string]string, error)
	UpsertAsset(ctx context.Context, in store.AssetInput) error
	UpsertCollection(ctx context.Context, in store.CollectionInput) error
	ReplaceReferences(ctx context.Context, from string, refs []store.Reference) error
	RemoveStale(ctx context.Context, currentSourceFiles []string) (int64, error)
}

var _ Store = (store.Store)(nil)
