// Package walker traverses the reflected fields of live objects. A single
// depth-first traversal drives three actions: serialize (live fields to
// property records), deserialize (records to live fields) and fix-up
// (cross-reference ids to live objects).
package walker

import (
	"prefabricator/internal/changes"
	"prefabricator/internal/class"
	"prefabricator/internal/crossref"
	"prefabricator/internal/property"
)

// Node is one visited position in a field graph.
type Node struct {
	Path  string
	Value class.Value
	Depth int
}

// Action receives every visited node. Returning false skips the node's
// children. Array children are enumerated after Visit returns, so an action
// may grow an array before its elements are walked.
type Action interface {
	Visit(n Node) bool
}

// ActionFunc adapts a function to Action.
type ActionFunc func(n Node) bool

func (f ActionFunc) Visit(n Node) bool { return f(n) }

type frame struct {
	path  string
	value class.Value
	depth int
}

// Walk visits root at path and everything below it.
func Walk(root class.Value, path string, act Action) {
	stack := []frame{{path: path, value: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !act.Visit(Node{Path: top.path, Value: top.value, Depth: top.depth}) {
			continue
		}

		switch top.value.Shape() {
		case class.ShapeStruct:
			fields := top.value.Fields()
			for i := len(fields) - 1; i >= 0; i-- {
				f := fields[i]
				if f.Transient {
					continue
				}
				child, ok := top.value.Field(f.Name)
				if !ok {
					continue
				}
				stack = append(stack, frame{
					path:  property.FieldPath(top.path, f.Name),
					value: child,
					depth: top.depth + 1,
				})
			}
		case class.ShapeArray:
			for i := top.value.Len() - 1; i >= 0; i-- {
				stack = append(stack, frame{
					path:  property.ElementPath(top.path, i),
					value: top.value.Index(i),
					depth: top.depth + 1,
				})
			}
		}
	}
}

// Ownership answers containment questions through the owner table of the
// scene that holds the walked objects.
type Ownership interface {
	OwnedBy(obj class.Object, owner class.Handle) bool
}

// Context carries the collaborators one walk over an object needs.
type Context struct {
	// Object is the live actor or component whose properties are walked.
	Object class.Object
	// Root is the handle of the template instance root that owns Object.
	Root class.Handle

	Lookup   *crossref.Lookup
	Targets  crossref.Targets
	Changes  *changes.Tracker
	Owners   Ownership
	Resolver class.Resolver
	Assets   property.AssetResolver
}

func (c Context) handle() class.Handle {
	if c.Object == nil {
		return 0
	}
	return c.Object.Handle()
}

func isDefaultSubobject(o class.Object) bool {
	s, ok := o.(class.Subobject)
	return ok && s.IsDefaultSubobject()
}
