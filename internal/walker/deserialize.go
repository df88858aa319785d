package walker

import (
	"go.uber.org/zap"

	"prefabricator/internal/class"
	"prefabricator/internal/property"
)

// UserDataField is the bookkeeping field that is never written on load.
const UserDataField = "AssetUserData"

type Deserializer struct {
	log *zap.Logger
}

func NewDeserializer(log *zap.Logger) *Deserializer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deserializer{log: log}
}

// Deserialize writes stored records onto props. Fields missing from the
// live class and paths under unstaged overrides are skipped. Pure
// cross-reference records are left to Fixup.
func (d *Deserializer) Deserialize(ctx Context, props any, records property.Records) {
	live := class.Bind(props, ctx.Resolver)
	for _, name := range records.Names() {
		rec := records[name]
		if rec == nil || (rec.IsCrossReferencedActor && !rec.ContainsStructValue) {
			continue
		}
		if rec.FieldName == UserDataField {
			continue
		}
		field, ok := live.Field(rec.FieldName)
		if !ok {
			d.log.Debug("stored field missing on live class", zap.String("field", rec.FieldName))
			continue
		}
		if field.Shape() == class.ShapeObject {
			if o := field.Object(); o != nil && isDefaultSubobject(o) {
				continue
			}
		}
		Walk(field, property.FieldPath("", rec.FieldName), &deserializeAction{ctx: ctx, rec: rec, log: d.log})
	}
}

type deserializeAction struct {
	ctx Context
	rec *property.Record
	log *zap.Logger
}

func (a *deserializeAction) Visit(n Node) bool {
	if a.ctx.Changes.IsOverridden(a.ctx.handle(), n.Path) {
		return false
	}
	switch n.Value.Shape() {
	case class.ShapeStruct:
		return true
	case class.ShapeArray:
		if e, ok := a.rec.Entry(n.Path); ok && e.IsArray() {
			n.Value.Grow(e.ArrayLength)
		}
		return true
	}

	e, ok := a.rec.Entry(n.Path)
	if !ok || e.IsCrossReference() {
		return false
	}
	text := property.ResolveAssetMappings(e.ExportedValue, e.AssetMappings, a.ctx.Assets)
	if err := n.Value.ImportText(text); err != nil {
		a.log.Warn("importing stored value", zap.String("path", n.Path), zap.Error(err))
	}
	return false
}
