package store

import "prefabricator/internal/template"

const (
	KindTemplate   = "template"
	KindCollection = "collection"
)

// Reference types between stored assets.
const (
	RefNests     = "NESTS"
	RefPicks     = "PICKS"
	RefUsesAsset = "USES_ASSET"
)

// Directions accepted by ListReferences.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
	DirectionBoth     = "both"
)

type AssetInput struct {
	Asset      *template.Asset
	SourceFile string
	SourceHash string
}

type CollectionInput struct {
	Collection *template.Collection
	SourceFile string
	SourceHash string
}

type AssetSummary struct {
	Path          string
	Kind          string
	SchemaVersion int
	LastUpdateID  string
	Actors        int
	Components    int
	SourceFile    string
}

type Reference struct {
	From string
	To   string
	Type string
}

// Dependent is an asset that reaches another through references. Depth 1
// means a direct reference.
type Dependent struct {
	Path  string
	Depth int
}

// Counts returns the actor and component record counts of a.
func Counts(a *template.Asset) (actors, components int) {
	components = len(a.ComponentData)
	for _, r := range a.ActorData {
		components += len(r.Components)
	}
	return len(a.ActorData), components
}
