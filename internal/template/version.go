package template

import "fmt"

// Schema versions of a stored asset.
const (
	VersionInitial                     = 0
	VersionAddedSoftReference          = 1
	VersionAddedSoftReferencePrefabFix = 2

	Latest = VersionAddedSoftReferencePrefabFix
)

// Migration converts an asset from one schema version to the next. It must
// not modify its argument.
type Migration func(*Asset) (*Asset, error)

var migrations = map[int]Migration{
	VersionInitial:            refreshReferences(VersionAddedSoftReference),
	VersionAddedSoftReference: refreshReferences(VersionAddedSoftReferencePrefabFix),
}

// refreshReferences rebuilds soft asset mappings from stored text. Both
// historical steps only differ in how mappings were extracted.
func refreshReferences(next int) Migration {
	return func(a *Asset) (*Asset, error) {
		out := a.Clone()
		out.RefreshAssetMappings()
		out.SchemaVersion = next
		return out, nil
	}
}

func NeedsUpgrade(a *Asset) bool {
	return a.SchemaVersion < Latest
}

// Upgrade runs the migration chain from the asset's version to Latest and
// returns the result. An asset already at Latest comes back as a copy.
func Upgrade(a *Asset) (*Asset, error) {
	if a.SchemaVersion < VersionInitial || a.SchemaVersion > Latest {
		return nil, fmt.Errorf("upgrading %s from version %d: %w", a.Path, a.SchemaVersion, ErrUnknownVersion)
	}
	cur := a.Clone()
	for cur.SchemaVersion < Latest {
		step, ok := migrations[cur.SchemaVersion]
		if !ok {
			return nil, fmt.Errorf("upgrading %s from version %d: %w", a.Path, cur.SchemaVersion, ErrUnknownVersion)
		}
		next, err := step(cur)
		if err != nil {
			return nil, fmt.Errorf("upgrading %s from version %d: %w", a.Path, cur.SchemaVersion, err)
		}
		cur = next
	}
	return cur, nil
}
