package class

import (
	"encoding"
	"reflect"
	"sync"
)

var (
	objectType          = reflect.TypeFor[Object]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

	fieldCache sync.Map // reflect.Type -> []Field
)

// Value is the reflection capability the field walker consumes. A Value
// wraps one addressable field (or the root property struct) of a live object.
type Value interface {
	Shape() Shape
	TypeName() string

	// Fields and Field apply to struct values.
	Fields() []Field
	Field(name string) (Value, bool)

	// Len, Index and Grow apply to array values. Grow only ever appends.
	Len() int
	Index(i int) Value
	Grow(n int)

	// Object and SetObject apply to object reference values.
	Object() Object
	SetObject(o Object) error

	ExportText() string
	ImportText(text string) error
}

// Bind wraps a property struct pointer. The resolver is used when importing
// external object references by path and may be nil.
func Bind(props any, resolver Resolver) Value {
	v := reflect.ValueOf(props)
	for v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	return &value{v: v, shape: shapeOf(v.Type()), resolver: resolver}
}

type value struct {
	v        reflect.Value
	shape    Shape
	resolver Resolver
}

func (x *value) Shape() Shape { return x.shape }

func (x *value) TypeName() string { return x.v.Type().String() }

func (x *value) Fields() []Field {
	if x.shape != ShapeStruct {
		return nil
	}
	return fieldsOf(x.v.Type())
}

func (x *value) Field(name string) (Value, bool) {
	if x.shape != ShapeStruct {
		return nil, false
	}
	for _, f := range fieldsOf(x.v.Type()) {
		if f.Name == name {
			fv := x.v.FieldByIndex(f.index)
			return &value{v: fv, shape: f.Shape, resolver: x.resolver}, true
		}
	}
	return nil, false
}

func (x *value) Len() int {
	if x.shape != ShapeArray {
		return 0
	}
	return x.v.Len()
}

func (x *value) Index(i int) Value {
	ev := x.v.Index(i)
	return &value{v: ev, shape: shapeOf(ev.Type()), resolver: x.resolver}
}

func (x *value) Grow(n int) {
	if x.shape != ShapeArray || x.v.Kind() != reflect.Slice || x.v.Len() >= n || !x.v.CanSet() {
		return
	}
	grown := x.v
	elem := x.v.Type().Elem()
	for grown.Len() < n {
		grown = reflect.Append(grown, newElement(elem))
	}
	x.v.Set(grown)
}

func (x *value) Object() Object {
	if x.shape != ShapeObject {
		return nil
	}
	switch x.v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if x.v.IsNil() {
			return nil
		}
	}
	o, _ := x.v.Interface().(Object)
	return o
}

func (x *value) SetObject(o Object) error {
	if x.shape != ShapeObject {
		return ErrNotScalar
	}
	if o == nil {
		x.v.Set(reflect.Zero(x.v.Type()))
		return nil
	}
	rv := reflect.ValueOf(o)
	if !rv.Type().AssignableTo(x.v.Type()) {
		return ErrUnassignable
	}
	x.v.Set(rv)
	return nil
}

// newElement builds a default array element, honouring Defaulter.
func newElement(t reflect.Type) reflect.Value {
	p := reflect.New(t)
	if d, ok := p.Interface().(Defaulter); ok {
		d.SetDefaults()
	}
	return p.Elem()
}

func shapeOf(t reflect.Type) Shape {
	if isTextual(t) {
		return ShapeScalar
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		if t.Implements(objectType) {
			return ShapeObject
		}
		return ShapeScalar
	case reflect.Struct:
		return ShapeStruct
	case reflect.Slice, reflect.Array:
		return ShapeArray
	default:
		return ShapeScalar
	}
}

func isTextual(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return false
	}
	pt := reflect.PointerTo(t)
	return (t.Implements(textMarshalerType) || pt.Implements(textMarshalerType)) && pt.Implements(textUnmarshalerType)
}

// reflectable filters out field types the property system does not expose.
func reflectable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return false
	case reflect.Pointer, reflect.Interface:
		return t.Implements(objectType)
	}
	return true
}

func fieldsOf(t reflect.Type) []Field {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]Field)
	}

	type candidate struct {
		field Field
		depth int
	}
	var all []candidate
	var collect func(st reflect.Type, prefix []int, depth int)
	collect = func(st reflect.Type, prefix []int, depth int) {
		for i := range st.NumField() {
			sf := st.Field(i)
			index := append(append([]int{}, prefix...), i)
			if !sf.IsExported() {
				continue
			}
			if sf.Anonymous && sf.Type.Kind() == reflect.Struct && !isTextual(sf.Type) {
				collect(sf.Type, index, depth+1)
				continue
			}
			tag := sf.Tag.Get("prefab")
			if tag == "-" || !reflectable(sf.Type) {
				continue
			}
			all = append(all, candidate{
				field: Field{
					Name:      sf.Name,
					Shape:     shapeOf(sf.Type),
					Transient: tag == "transient",
					index:     index,
				},
				depth: depth,
			})
		}
	}
	collect(t, nil, 0)

	shallowest := make(map[string]int, len(all))
	for _, c := range all {
		if d, ok := shallowest[c.field.Name]; !ok || c.depth < d {
			shallowest[c.field.Name] = c.depth
		}
	}
	fields := make([]Field, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, c := range all {
		if seen[c.field.Name] || shallowest[c.field.Name] != c.depth {
			continue
		}
		seen[c.field.Name] = true
		fields = append(fields, c.field)
	}

	fieldCache.Store(t, fields)
	return fields
}
