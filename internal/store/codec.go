package store

import (
	"encoding/json"
	"fmt"

	"prefabricator/internal/template"
)

// EncodeAsset returns the JSON document stored for a. The thumbnail is kept
// in its own column.
func EncodeAsset(a *template.Asset) ([]byte, error) {
	doc := *a
	doc.Thumbnail = nil
	data, err := json.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encoding asset %s: %w", a.Path, err)
	}
	return data, nil
}

func DecodeAsset(data, thumbnail []byte) (*template.Asset, error) {
	var a template.Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding asset: %w", err)
	}
	if len(thumbnail) > 0 {
		a.Thumbnail = thumbnail
	}
	return &a, nil
}

func EncodeCollection(c *template.Collection) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding collection %s: %w", c.Path, err)
	}
	return data, nil
}

func DecodeCollection(data []byte) (*template.Collection, error) {
	var c template.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding collection: %w", err)
	}
	return &c, nil
}
