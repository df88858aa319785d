// Package template holds the persisted form of prefab templates: item
// records with stable ids, the asset that groups them, collections that pick
// a template by seed, and the schema migration chain.
package template

import (
	"errors"
	"sort"

	"github.com/google/uuid"

	"prefabricator/internal/property"
	"prefabricator/internal/scene"
)

// Class paths of an instance root and its root component, and the field on
// that component naming the bound template.
const (
	InstanceActorClass     = "/Script/Prefabricator.PrefabActor"
	InstanceComponentClass = "/Script/Prefabricator.PrefabComponent"
	TemplateField          = "Template"
)

var (
	ErrNotFound        = errors.New("template not found")
	ErrUnknownVersion  = errors.New("unknown schema version")
	ErrEmptyCollection = errors.New("collection has no entries")
	ErrDuplicateItem   = errors.New("duplicate item id")
)

// Item is the stored state of one actor or component of a template.
type Item struct {
	ItemID            uuid.UUID        `yaml:"item_id" json:"item_id"`
	ClassPath         string           `yaml:"class" json:"class_path"`
	RelativeTransform scene.Transform  `yaml:"transform" json:"relative_transform"`
	Properties        property.Records `yaml:"properties,omitempty" json:"properties,omitempty"`
	DisplayName       string           `yaml:"display_name,omitempty" json:"display_name,omitempty"`

	// Stale marks records not revisited by the save in progress.
	Stale bool `yaml:"-" json:"-"`
}

func (it Item) clone() Item {
	out := it
	out.Properties = it.Properties.Clone()
	return out
}

// ComponentRecord is an Item for a component. Components of child actors are
// matched on load by Name.
type ComponentRecord struct {
	Item `yaml:",inline"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

func (c *ComponentRecord) Clone() *ComponentRecord {
	return &ComponentRecord{Item: c.Item.clone(), Name: c.Name}
}

type ActorRecord struct {
	Item       `yaml:",inline"`
	Components []*ComponentRecord `yaml:"components,omitempty" json:"components,omitempty"`
}

func (a *ActorRecord) Clone() *ActorRecord {
	out := &ActorRecord{Item: a.Item.clone()}
	for _, c := range a.Components {
		out.Components = append(out.Components, c.Clone())
	}
	return out
}

// Component returns the component record stored under name.
func (a *ActorRecord) Component(name string) (*ComponentRecord, bool) {
	for _, c := range a.Components {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Asset is a persisted template. Actor and component records keep the order
// they were saved in, which is the order a load creates them.
type Asset struct {
	Path          string             `yaml:"path" json:"path"`
	SchemaVersion int                `yaml:"schema_version" json:"schema_version"`
	LastUpdateID  uuid.UUID          `yaml:"last_update_id" json:"last_update_id"`
	RootMobility  scene.Mobility     `yaml:"root_mobility" json:"root_mobility"`
	EventListener string             `yaml:"event_listener,omitempty" json:"event_listener,omitempty"`
	Replicates    bool               `yaml:"replicates,omitempty" json:"replicates,omitempty"`
	ActorData     []*ActorRecord     `yaml:"actors,omitempty" json:"actor_data,omitempty"`
	ComponentData []*ComponentRecord `yaml:"components,omitempty" json:"component_data,omitempty"`
	Thumbnail     []byte             `yaml:"-" json:"thumbnail,omitempty"`
}

func New(path string) *Asset {
	return &Asset{Path: path, SchemaVersion: Latest, LastUpdateID: uuid.New()}
}

func (a *Asset) Clone() *Asset {
	out := *a
	out.ActorData = nil
	out.ComponentData = nil
	for _, r := range a.ActorData {
		out.ActorData = append(out.ActorData, r.Clone())
	}
	for _, r := range a.ComponentData {
		out.ComponentData = append(out.ComponentData, r.Clone())
	}
	if a.Thumbnail != nil {
		out.Thumbnail = append([]byte(nil), a.Thumbnail...)
	}
	return &out
}

func (a *Asset) Actor(itemID uuid.UUID) (*ActorRecord, bool) {
	for _, r := range a.ActorData {
		if r.ItemID == itemID {
			return r, true
		}
	}
	return nil, false
}

func (a *Asset) Component(itemID uuid.UUID) (*ComponentRecord, bool) {
	for _, r := range a.ComponentData {
		if r.ItemID == itemID {
			return r, true
		}
	}
	return nil, false
}

// Items visits every stored item: root components, then actors followed by
// their components.
func (a *Asset) Items(fn func(it *Item)) {
	for _, c := range a.ComponentData {
		fn(&c.Item)
	}
	for _, r := range a.ActorData {
		fn(&r.Item)
		for _, c := range r.Components {
			fn(&c.Item)
		}
	}
}

// MarkStale flags every record; a save clears the flag on records it visits.
func (a *Asset) MarkStale() {
	a.Items(func(it *Item) { it.Stale = true })
}

// SweepStale removes records still flagged stale and returns how many went.
func (a *Asset) SweepStale() int {
	removed := 0
	comps := a.ComponentData[:0]
	for _, c := range a.ComponentData {
		if c.Stale {
			removed++
			continue
		}
		comps = append(comps, c)
	}
	a.ComponentData = comps

	actors := a.ActorData[:0]
	for _, r := range a.ActorData {
		if r.Stale {
			removed++
			continue
		}
		kept := r.Components[:0]
		for _, c := range r.Components {
			if c.Stale {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		r.Components = kept
		actors = append(actors, r)
	}
	a.ActorData = actors
	return removed
}

// RefreshAssetMappings re-extracts soft asset references from every record.
func (a *Asset) RefreshAssetMappings() {
	a.Items(func(it *Item) {
		for _, rec := range it.Properties {
			rec.RefreshAssetMappings()
		}
	})
}

// CheckItemIDs reports the first item id used twice among actors or among
// root components.
func (a *Asset) CheckItemIDs() (uuid.UUID, bool) {
	seen := make(map[uuid.UUID]bool)
	for _, r := range a.ActorData {
		if seen[r.ItemID] {
			return r.ItemID, false
		}
		seen[r.ItemID] = true
	}
	seen = make(map[uuid.UUID]bool)
	for _, c := range a.ComponentData {
		if seen[c.ItemID] {
			return c.ItemID, false
		}
		seen[c.ItemID] = true
	}
	return uuid.Nil, true
}

// References lists the distinct assets this template points at: soft asset
// references in stored values and templates bound by nested instances.
func (a *Asset) References() []string {
	set := make(map[string]bool)
	a.Items(func(it *Item) {
		for _, rec := range it.Properties {
			for _, e := range rec.Entries {
				for _, m := range e.AssetMappings {
					set[m.AssetReference] = true
				}
			}
		}
	})
	for _, path := range a.NestedTemplates() {
		set[path] = true
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// NestedTemplates lists the templates bound by nested instance actors.
func (a *Asset) NestedTemplates() []string {
	var out []string
	for _, r := range a.ActorData {
		if r.ClassPath != InstanceActorClass {
			continue
		}
		for _, c := range r.Components {
			if c.ClassPath != InstanceComponentClass {
				continue
			}
			rec, ok := c.Properties[TemplateField]
			if !ok {
				continue
			}
			if e, ok := rec.Entry(property.FieldPath("", TemplateField)); ok && e.ExportedValue != "" {
				out = append(out, e.ExportedValue)
			}
		}
	}
	return out
}
