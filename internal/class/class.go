package class

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownClass  = errors.New("unknown class")
	ErrNotStruct     = errors.New("class prototype must be a pointer to a struct")
	ErrDuplicate     = errors.New("class already registered")
	ErrNotScalar     = errors.New("value is not importable as text")
	ErrUnassignable  = errors.New("object is not assignable to field")
	ErrUnresolvedRef = errors.New("object reference could not be resolved")
)

// Shape is the structural category of a reflected value.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeStruct
	ShapeArray
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeStruct:
		return "struct"
	case ShapeArray:
		return "array"
	case ShapeObject:
		return "object"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Kind separates actor classes from component classes.
type Kind int

const (
	KindActor Kind = iota
	KindComponent
)

func (k Kind) String() string {
	if k == KindComponent {
		return "component"
	}
	return "actor"
}

// Handle identifies a live object inside its world.
type Handle uint64

// Object is a live engine object that reference fields can point at.
type Object interface {
	Handle() Handle
	PathName() string
}

// Subobject is implemented by objects that may be engine-managed default children.
type Subobject interface {
	IsDefaultSubobject() bool
}

// Resolver finds live objects by path when importing external references.
type Resolver interface {
	ResolveObject(path string) (Object, bool)
}

// Defaulter lets a property struct initialise its class defaults.
type Defaulter interface {
	SetDefaults()
}

type Field struct {
	Name      string
	Shape     Shape
	Transient bool
	index     []int
}

type Class struct {
	Path string
	Kind Kind

	typ    reflect.Type
	fields []Field

	defOnce sync.Once
	def     any
}

// New returns a freshly constructed property struct for the class.
func (c *Class) New() any {
	v := reflect.New(c.typ)
	if d, ok := v.Interface().(Defaulter); ok {
		d.SetDefaults()
	}
	return v.Interface()
}

// Default returns the shared class default object. Callers must not mutate it.
func (c *Class) Default() any {
	c.defOnce.Do(func() {
		c.def = c.New()
	})
	return c.def
}

func (c *Class) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Accepts reports whether props is a property struct of this class.
func (c *Class) Accepts(props any) bool {
	if props == nil {
		return false
	}
	t := reflect.TypeOf(props)
	return t.Kind() == reflect.Pointer && t.Elem() == c.typ
}

type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

func (r *Registry) Register(path string, kind Kind, prototype any) (*Class, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("registering class: empty path")
	}
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("registering class %s: %w", path, ErrNotStruct)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.classes[path]; exists {
		return nil, fmt.Errorf("registering class %s: %w", path, ErrDuplicate)
	}
	c := &Class{
		Path:   path,
		Kind:   kind,
		typ:    t.Elem(),
		fields: fieldsOf(t.Elem()),
	}
	r.classes[path] = c
	return c, nil
}

func (r *Registry) MustRegister(path string, kind Kind, prototype any) *Class {
	c, err := r.Register(path, kind, prototype)
	if err != nil {
		panic(err)
	}
	return c
}

func (r *Registry) Lookup(path string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[path]
	return c, ok
}

func (r *Registry) Resolve(path string) (*Class, error) {
	c, ok := r.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, path)
	}
	return c, nil
}

func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.classes))
	for path := range r.classes {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
