package property

import (
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// entryDocument is the hand-editable form of an Entry: unset array lengths
// and cross-reference ids are left out instead of written as sentinels.
type entryDocument struct {
	Path             string         `yaml:"path,omitempty"`
	ExportedValue    string         `yaml:"value,omitempty"`
	ArrayLength      *int           `yaml:"array_length,omitempty"`
	CrossReferenceID *uuid.UUID     `yaml:"cross_reference_id,omitempty"`
	AssetMappings    []AssetMapping `yaml:"asset_mappings,omitempty"`
}

func (e Entry) MarshalYAML() (any, error) {
	doc := entryDocument{
		Path:          e.Path,
		ExportedValue: e.ExportedValue,
		AssetMappings: e.AssetMappings,
	}
	if e.IsArray() {
		n := e.ArrayLength
		doc.ArrayLength = &n
	}
	if e.IsCrossReference() {
		id := e.CrossReferenceID
		doc.CrossReferenceID = &id
	}
	return doc, nil
}

func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	var doc entryDocument
	if err := node.Decode(&doc); err != nil {
		return err
	}
	*e = Entry{
		Path:          doc.Path,
		ExportedValue: doc.ExportedValue,
		ArrayLength:   NoArrayLength,
		AssetMappings: doc.AssetMappings,
	}
	if doc.ArrayLength != nil {
		e.ArrayLength = *doc.ArrayLength
	}
	if doc.CrossReferenceID != nil {
		e.CrossReferenceID = *doc.CrossReferenceID
	}
	return nil
}

// FillKeys sets field names and entry paths left empty in a hand-written
// document from their map keys.
func (rs Records) FillKeys() {
	for name, r := range rs {
		if r == nil {
			continue
		}
		if r.FieldName == "" {
			r.FieldName = name
		}
		for path, e := range r.Entries {
			if e == nil {
				r.Entries[path] = NewEntry(path)
				continue
			}
			if e.Path == "" {
				e.Path = path
			}
		}
	}
}
