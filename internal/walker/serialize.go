package walker

import (
	"go.uber.org/zap"

	"prefabricator/internal/class"
	"prefabricator/internal/property"
)

// DefaultIgnore lists bookkeeping fields that are never captured.
var DefaultIgnore = []string{
	"AttachParent",
	"AttachSocketName",
	"AttachChildren",
	"ClientAttachedChildren",
	"IsEditorPreviewActor",
	"IsEditorOnlyActor",
	"UCSModifiedProperties",
	"BlueprintCreatedComponents",
}

// DefaultForce lists fields captured even when they equal the default.
var DefaultForce = []string{"Mobility"}

type Serializer struct {
	ignore map[string]bool
	force  map[string]bool
	log    *zap.Logger
}

// NewSerializer builds a serializer from the default lists plus extras.
func NewSerializer(ignore, force []string, log *zap.Logger) *Serializer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Serializer{
		ignore: make(map[string]bool),
		force:  make(map[string]bool),
		log:    log,
	}
	for _, n := range append(append([]string(nil), DefaultIgnore...), ignore...) {
		s.ignore[n] = true
	}
	for _, n := range append(append([]string(nil), DefaultForce...), force...) {
		s.force[n] = true
	}
	return s
}

func (s *Serializer) Ignored(field string) bool { return s.ignore[field] }

func (s *Serializer) Forced(field string) bool { return s.force[field] }

// Serialize captures the fields of props that differ from def. previous
// holds the records stored by the last save; values under unstaged
// overrides are carried over from it unchanged.
func (s *Serializer) Serialize(ctx Context, props, def any, previous property.Records) property.Records {
	out := make(property.Records)
	live := class.Bind(props, ctx.Resolver)
	var base class.Value
	if def != nil {
		base = class.Bind(def, nil)
	}

	for _, f := range live.Fields() {
		if f.Transient || s.ignore[f.Name] {
			continue
		}
		field, _ := live.Field(f.Name)

		if !s.force[f.Name] && base != nil {
			if dv, ok := base.Field(f.Name); ok && dv.ExportText() == field.ExportText() {
				if rec := s.carryOver(ctx, f.Name, previous); rec != nil {
					out[f.Name] = rec
				}
				continue
			}
		}

		if f.Shape == class.ShapeObject {
			if o := field.Object(); o != nil {
				if isDefaultSubobject(o) {
					continue
				}
				if ctx.Owners != nil && (ctx.Owners.OwnedBy(o, ctx.handle()) || ctx.Owners.OwnedBy(o, ctx.Root)) {
					s.log.Debug("skipping owned reference", zap.String("field", f.Name), zap.String("target", o.PathName()))
					continue
				}
			}
		}

		rec := property.NewRecord(f.Name)
		Walk(field, property.FieldPath("", f.Name), &serializeAction{
			ctx:      ctx,
			rec:      rec,
			previous: previous[f.Name],
		})
		rec.RefreshAssetMappings()
		rec.Normalize()
		out[f.Name] = rec
	}
	return out
}

// carryOver keeps the stored record of a default-valued field when an
// unstaged override below it still protects the stored value.
func (s *Serializer) carryOver(ctx Context, field string, previous property.Records) *property.Record {
	old, ok := previous[field]
	if !ok {
		return nil
	}
	h := ctx.handle()
	for _, c := range ctx.Changes.Unstaged() {
		if c.Object == h && property.TopField(c.Path) == field {
			return old.Clone()
		}
	}
	return nil
}

type serializeAction struct {
	ctx      Context
	rec      *property.Record
	previous *property.Record
}

func (a *serializeAction) Visit(n Node) bool {
	h := a.ctx.handle()
	if change, ok := a.ctx.Changes.Lookup(h, n.Path); ok {
		if !change.Staged {
			a.keepStored(n.Path)
			return false
		}
		a.ctx.Changes.Remove(h, n.Path)
	}

	switch n.Value.Shape() {
	case class.ShapeStruct:
		a.rec.ContainsStructValue = true
		return true
	case class.ShapeArray:
		a.rec.Ensure(n.Path).ArrayLength = n.Value.Len()
		return true
	case class.ShapeObject:
		if o := n.Value.Object(); o != nil && !isDefaultSubobject(o) {
			if id, ok := a.ctx.Lookup.ItemID(o.PathName()); ok {
				a.rec.Ensure(n.Path).CrossReferenceID = id
				a.rec.IsCrossReferencedActor = true
				return false
			}
		}
	}
	a.rec.Ensure(n.Path).ExportedValue = n.Value.ExportText()
	return false
}

// keepStored copies every stored entry at or below path.
func (a *serializeAction) keepStored(path string) {
	if a.previous == nil {
		return
	}
	for p, e := range a.previous.Entries {
		if property.Within(p, path) {
			a.rec.Entries[p] = e.Clone()
		}
	}
	if a.previous.ContainsStructValue {
		a.rec.ContainsStructValue = true
	}
}
