package property

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PathSeparator introduces every field segment of an entry path.
const PathSeparator = "|"

// NoArrayLength marks an entry that does not describe an array.
const NoArrayLength = -1

// Entry is one exported value at one field path of an item.
type Entry struct {
	Path             string         `json:"path" yaml:"path"`
	ExportedValue    string         `json:"exported_value,omitempty" yaml:"value,omitempty"`
	ArrayLength      int            `json:"array_length" yaml:"array_length"`
	CrossReferenceID uuid.UUID      `json:"cross_reference_id" yaml:"cross_reference_id"`
	AssetMappings    []AssetMapping `json:"asset_mappings,omitempty" yaml:"asset_mappings,omitempty"`
}

func NewEntry(path string) *Entry {
	return &Entry{Path: path, ArrayLength: NoArrayLength}
}

func (e *Entry) IsCrossReference() bool {
	return e.CrossReferenceID != uuid.Nil
}

func (e *Entry) IsArray() bool {
	return e.ArrayLength != NoArrayLength
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	out := *e
	if e.AssetMappings != nil {
		out.AssetMappings = append([]AssetMapping(nil), e.AssetMappings...)
	}
	return &out
}

// Record holds every entry captured for one top-level field.
type Record struct {
	FieldName              string            `json:"field_name" yaml:"field"`
	IsCrossReferencedActor bool              `json:"is_cross_referenced_actor" yaml:"cross_referenced"`
	ContainsStructValue    bool              `json:"contains_struct_value" yaml:"contains_struct"`
	Entries                map[string]*Entry `json:"entries" yaml:"entries"`
}

func NewRecord(fieldName string) *Record {
	return &Record{FieldName: fieldName, Entries: make(map[string]*Entry)}
}

func (r *Record) Entry(path string) (*Entry, bool) {
	if r == nil {
		return nil, false
	}
	e, ok := r.Entries[path]
	return e, ok
}

// Ensure returns the entry at path, creating it when missing.
func (r *Record) Ensure(path string) *Entry {
	if r.Entries == nil {
		r.Entries = make(map[string]*Entry)
	}
	if e, ok := r.Entries[path]; ok {
		return e
	}
	e := NewEntry(path)
	r.Entries[path] = e
	return e
}

// Paths lists entry paths in sorted order.
func (r *Record) Paths() []string {
	paths := make([]string, 0, len(r.Entries))
	for p := range r.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// HasCrossReference reports whether any entry holds a cross-reference id.
func (r *Record) HasCrossReference() bool {
	for _, e := range r.Entries {
		if e.IsCrossReference() {
			return true
		}
	}
	return false
}

// Normalize re-establishes the cross-reference flag from the entries.
func (r *Record) Normalize() {
	r.IsCrossReferencedActor = r.HasCrossReference()
}

// RefreshAssetMappings re-extracts soft asset references from every entry.
func (r *Record) RefreshAssetMappings() {
	for _, e := range r.Entries {
		e.AssetMappings = ExtractAssetMappings(e.ExportedValue)
	}
}

func (r *Record) Clone() *Record {
	out := &Record{
		FieldName:              r.FieldName,
		IsCrossReferencedActor: r.IsCrossReferencedActor,
		ContainsStructValue:    r.ContainsStructValue,
		Entries:                make(map[string]*Entry, len(r.Entries)),
	}
	for p, e := range r.Entries {
		out.Entries[p] = e.Clone()
	}
	return out
}

// Records maps top-level field names to their records.
type Records map[string]*Record

func (rs Records) Clone() Records {
	if rs == nil {
		return nil
	}
	out := make(Records, len(rs))
	for name, r := range rs {
		out[name] = r.Clone()
	}
	return out
}

// Names lists field names in sorted order.
func (rs Records) Names() []string {
	names := make([]string, 0, len(rs))
	for n := range rs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FieldPath appends a named field segment to parent.
func FieldPath(parent, field string) string {
	return parent + PathSeparator + field
}

// ElementPath appends an array index to the array's own path.
func ElementPath(array string, index int) string {
	return array + "[" + strconv.Itoa(index) + "]"
}

// Within reports whether path is root or lies below it, as a nested field
// or an array element.
func Within(path, root string) bool {
	if !strings.HasPrefix(path, root) {
		return false
	}
	rest := path[len(root):]
	return rest == "" || strings.HasPrefix(rest, PathSeparator) || strings.HasPrefix(rest, "[")
}

// TopField returns the top-level field name of an entry path.
func TopField(path string) string {
	path = strings.TrimPrefix(path, PathSeparator)
	if i := strings.IndexAny(path, PathSeparator+"["); i >= 0 {
		return path[:i]
	}
	return path
}
