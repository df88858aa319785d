// Package ingest imports template and collection documents from disk into
// the asset store.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prefabricator/internal/config"
	"prefabricator/internal/parser"
	"prefabricator/internal/store"
	"prefabricator/internal/template"
)

type Result struct {
	AssetsUpserted      int
	CollectionsUpserted int
	ReferencesUpserted  int
	AssetsRemoved       int
	FilesSkipped        int
	Upgraded            int
	Errors              []error
}

type Options struct {
	Full bool
}

type imported struct {
	path string
	refs []store.Reference
}

func Run(ctx context.Context, cfg *config.ProjectConfig, db Store, options Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var existingHashes map[string]string
	if !options.Full {
		var err error
		existingHashes, err = db.GetSourceHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get source hashes: %w", err)
		}
	}

	files, err := walkYAMLFiles(cfg.Assets.Paths, cfg.Assets.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking asset files: %w", err)
	}

	result := &Result{}
	var processed []imported
	seen := make(map[string]string)

	for _, path := range files {
		hash, err := computeHash(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
			continue
		}
		if !options.Full {
			if existing, ok := existingHashes[path]; ok && existing == hash {
				result.FilesSkipped++
				continue
			}
		}

		doc, err := parser.ParseFile(path)
		if err != nil {
			if errors.Is(err, parser.ErrMissingKind) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}

		if other, ok := seen[doc.Path()]; ok {
			result.Errors = append(result.Errors, fmt.Errorf("%s: asset %s already defined in %s", path, doc.Path(), other))
			continue
		}
		seen[doc.Path()] = path

		switch doc.Kind {
		case parser.KindTemplate:
			a, upgraded, err := prepareAsset(doc.Asset, hash)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("preparing %s: %w", path, err))
				continue
			}
			if err := db.UpsertAsset(ctx, store.AssetInput{Asset: a, SourceFile: path, SourceHash: hash}); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", path, err))
				continue
			}
			if upgraded {
				result.Upgraded++
				log.Info("upgraded template", zap.String("template", a.Path), zap.Int("schema_version", a.SchemaVersion))
			}
			result.AssetsUpserted++
			processed = append(processed, imported{path: a.Path, refs: store.AssetReferences(a)})
		case parser.KindCollection:
			c := doc.Collection
			if err := db.UpsertCollection(ctx, store.CollectionInput{Collection: c, SourceFile: path, SourceHash: hash}); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", path, err))
				continue
			}
			result.CollectionsUpserted++
			processed = append(processed, imported{path: c.Path, refs: store.CollectionReferences(c)})
		}
	}

	for _, item := range processed {
		if err := db.ReplaceReferences(ctx, item.path, item.refs); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("storing references of %s: %w", item.path, err))
			continue
		}
		result.ReferencesUpserted += len(item.refs)
	}

	deleted, err := db.RemoveStale(ctx, files)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale assets: %w", err))
	} else {
		result.AssetsRemoved = int(deleted)
	}

	log.Debug("import complete",
		zap.Int("templates", result.AssetsUpserted),
		zap.Int("collections", result.CollectionsUpserted),
		zap.Int("skipped", result.FilesSkipped),
		zap.Int("removed", result.AssetsRemoved),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// prepareAsset upgrades a to the latest schema, re-extracts soft asset
// references from the stored text and assigns an update id derived from the
// file hash when the document carries none.
func prepareAsset(a *template.Asset, hash string) (*template.Asset, bool, error) {
	if id, ok := a.CheckItemIDs(); !ok {
		return nil, false, fmt.Errorf("%w: %s", template.ErrDuplicateItem, id)
	}
	upgraded := false
	if template.NeedsUpgrade(a) {
		next, err := template.Upgrade(a)
		if err != nil {
			return nil, false, err
		}
		a, upgraded = next, true
	}
	a.RefreshAssetMappings()
	if a.LastUpdateID == uuid.Nil {
		a.LastUpdateID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(hash))
	}
	return a, upgraded, nil
}

func walkYAMLFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !isYAML(d.Name()) {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isYAML(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
