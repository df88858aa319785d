package walker

import (
	"go.uber.org/zap"

	"prefabricator/internal/class"
	"prefabricator/internal/property"
)

// FixupResult counts what one fix-up pass did.
type FixupResult struct {
	Resolved   int
	Unresolved int
}

func (r *FixupResult) Add(other FixupResult) {
	r.Resolved += other.Resolved
	r.Unresolved += other.Unresolved
}

// Fixup writes live objects into every field path whose record stores a
// cross-reference id. It must run after every item of the load exists.
// Unresolved ids are logged and leave the field untouched.
func Fixup(ctx Context, props any, records property.Records, log *zap.Logger) FixupResult {
	if log == nil {
		log = zap.NewNop()
	}
	var res FixupResult
	live := class.Bind(props, ctx.Resolver)
	for _, name := range records.Names() {
		rec := records[name]
		if rec == nil || !rec.IsCrossReferencedActor {
			continue
		}
		field, ok := live.Field(rec.FieldName)
		if !ok {
			continue
		}
		Walk(field, property.FieldPath("", rec.FieldName), ActionFunc(func(n Node) bool {
			if ctx.Changes.IsOverridden(ctx.handle(), n.Path) {
				return false
			}
			switch n.Value.Shape() {
			case class.ShapeStruct:
				return true
			case class.ShapeArray:
				e, ok := rec.Entry(n.Path)
				if !ok {
					return false
				}
				if e.IsArray() {
					n.Value.Grow(e.ArrayLength)
				}
				return true
			case class.ShapeObject:
				e, ok := rec.Entry(n.Path)
				if !ok || !e.IsCrossReference() {
					return false
				}
				target, ok := ctx.Targets.Resolve(e.CrossReferenceID)
				if !ok {
					res.Unresolved++
					log.Warn("unresolved cross reference",
						zap.String("path", n.Path),
						zap.String("item", e.CrossReferenceID.String()))
					return false
				}
				if err := n.Value.SetObject(target); err != nil {
					res.Unresolved++
					log.Warn("assigning cross reference", zap.String("path", n.Path), zap.Error(err))
					return false
				}
				res.Resolved++
			}
			return false
		}))
	}
	return res
}
