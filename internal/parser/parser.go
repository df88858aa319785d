// Package parser reads and writes the YAML documents templates and
// collections are authored in.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"prefabricator/internal/template"
)

const (
	KindTemplate   = "template"
	KindCollection = "collection"
)

type Document struct {
	Kind       string
	Asset      *template.Asset
	Collection *template.Collection
	SourceFile string
}

// Path is the asset path the document defines.
func (d *Document) Path() string {
	if d.Asset != nil {
		return d.Asset.Path
	}
	if d.Collection != nil {
		return d.Collection.Path
	}
	return ""
}

var (
	ErrMissingKind   = errors.New("document missing required 'kind' field")
	ErrUnknownKind   = errors.New("unknown document kind")
	ErrInvalidYAML   = errors.New("invalid YAML")
	ErrMissingPath   = errors.New("document missing required 'path' field")
	ErrMissingItemID = errors.New("record missing item_id")
)

type header struct {
	Kind string `yaml:"kind"`
}

type templateFile struct {
	Kind           string `yaml:"kind"`
	template.Asset `yaml:",inline"`
}

type collectionFile struct {
	Kind                string `yaml:"kind"`
	template.Collection `yaml:",inline"`
}

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))

	var h header
	if err := yaml.Unmarshal(content, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	switch strings.ToLower(strings.TrimSpace(h.Kind)) {
	case "":
		return nil, ErrMissingKind
	case KindTemplate:
		var f templateFile
		if err := decodeStrict(content, &f); err != nil {
			return nil, err
		}
		a := f.Asset
		if err := checkAsset(&a); err != nil {
			return nil, err
		}
		return &Document{Kind: KindTemplate, Asset: &a}, nil
	case KindCollection:
		var f collectionFile
		if err := decodeStrict(content, &f); err != nil {
			return nil, err
		}
		c := f.Collection
		if strings.TrimSpace(c.Path) == "" {
			return nil, ErrMissingPath
		}
		return &Document{Kind: KindCollection, Collection: &c}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, h.Kind)
	}
}

func decodeStrict(content []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

// checkAsset fills keys hand-written documents may leave out and rejects
// records without an item id.
func checkAsset(a *template.Asset) error {
	if strings.TrimSpace(a.Path) == "" {
		return ErrMissingPath
	}
	var missing string
	a.Items(func(it *template.Item) {
		it.Properties.FillKeys()
		if it.ItemID == uuid.Nil && missing == "" {
			missing = it.ClassPath
		}
	})
	if missing != "" {
		return fmt.Errorf("%w: %s", ErrMissingItemID, missing)
	}
	return nil
}

// Encode renders doc in the form Parse reads.
func Encode(doc *Document) ([]byte, error) {
	var v any
	switch {
	case doc.Asset != nil:
		v = templateFile{Kind: KindTemplate, Asset: *doc.Asset}
	case doc.Collection != nil:
		v = collectionFile{Kind: KindCollection, Collection: *doc.Collection}
	default:
		return nil, fmt.Errorf("encoding document: nothing to encode")
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", doc.Path(), err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", doc.Path(), err)
	}
	return buf.Bytes(), nil
}
