package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"prefabricator/internal/store"
)

// Mirror is the graph side of a sync.
type Mirror interface {
	SyncTokens(ctx context.Context) (map[string]string, error)
	UpsertAsset(ctx context.Context, n AssetNode) error
	ReplaceReferences(ctx context.Context, from string, refs []store.Reference) error
	RemoveStaleNodes(ctx context.Context, keep []string) (int64, error)
}

var _ Mirror = (*Client)(nil)

type SyncResult struct {
	AssetsSynced     int
	AssetsSkipped    int
	ReferencesSynced int
	NodesRemoved     int64
}

// Sync copies every stored asset and its outgoing references into dst.
// Assets whose token is unchanged since the last sync are skipped unless
// full is set.
func Sync(ctx context.Context, src store.Store, dst Mirror, full bool, log *zap.Logger) (SyncResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var result SyncResult

	summaries, err := src.ListAssets(ctx, "", "")
	if err != nil {
		return result, fmt.Errorf("listing stored assets: %w", err)
	}
	hashes, err := src.GetSourceHashes(ctx)
	if err != nil {
		return result, fmt.Errorf("loading source hashes: %w", err)
	}
	synced := map[string]string{}
	if !full {
		synced, err = dst.SyncTokens(ctx)
		if err != nil {
			return result, err
		}
	}

	keep := make([]string, 0, len(summaries))
	for _, s := range summaries {
		keep = append(keep, s.Path)
		node := NodeFromSummary(s, hashes[s.SourceFile])
		if prev, ok := synced[s.Path]; ok && node.Token != "" && prev == node.Token {
			result.AssetsSkipped++
			continue
		}
		if err := dst.UpsertAsset(ctx, node); err != nil {
			return result, err
		}
		result.AssetsSynced++
	}

	// Edges are written once every node exists so targets are never
	// needlessly created as placeholders.
	for _, s := range summaries {
		refs, err := src.ListReferences(ctx, s.Path, store.DirectionOutgoing)
		if err != nil {
			return result, fmt.Errorf("listing references of %s: %w", s.Path, err)
		}
		if err := dst.ReplaceReferences(ctx, s.Path, refs); err != nil {
			return result, err
		}
		result.ReferencesSynced += len(refs)
	}

	removed, err := dst.RemoveStaleNodes(ctx, keep)
	if err != nil {
		return result, err
	}
	result.NodesRemoved = removed

	log.Info("graph sync complete",
		zap.Int("synced", result.AssetsSynced),
		zap.Int("skipped", result.AssetsSkipped),
		zap.Int("references", result.ReferencesSynced),
		zap.Int64("removed", result.NodesRemoved))
	return result, nil
}
