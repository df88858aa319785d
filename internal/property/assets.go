package property

import (
	"path"
	"regexp"
	"strings"
)

// AssetMapping records a soft asset reference embedded in exported text.
type AssetMapping struct {
	AssetReference  string `json:"asset_reference" yaml:"reference"`
	AssetClassName  string `json:"asset_class_name" yaml:"class"`
	AssetObjectPath string `json:"asset_object_path" yaml:"object"`
	UseQuotes       bool   `json:"use_quotes,omitempty" yaml:"quotes,omitempty"`
}

// AssetResolver maps a stored asset path to its current location.
type AssetResolver interface {
	ResolveAsset(path string) (string, bool)
}

var softReference = regexp.MustCompile(`([\w./]+)'("?)([^'"]+)("?)'`)

// ExtractAssetMappings finds every ClassName'path' reference in text.
func ExtractAssetMappings(text string) []AssetMapping {
	matches := softReference.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]AssetMapping, 0, len(matches))
	for _, m := range matches {
		ref := m[3]
		out = append(out, AssetMapping{
			AssetReference:  ref,
			AssetClassName:  m[1],
			AssetObjectPath: objectName(ref),
			UseQuotes:       m[2] == `"` && m[4] == `"`,
		})
	}
	return out
}

// objectName is the object part of /Package/Path.Object.
func objectName(ref string) string {
	base := path.Base(ref)
	if i := strings.LastIndex(base, "."); i >= 0 {
		return base[i+1:]
	}
	return base
}

// ResolveAssetMappings rewrites references in text whose assets have moved.
func ResolveAssetMappings(text string, mappings []AssetMapping, resolver AssetResolver) string {
	if resolver == nil {
		return text
	}
	for _, m := range mappings {
		current, ok := resolver.ResolveAsset(m.AssetReference)
		if !ok || current == m.AssetReference {
			continue
		}
		text = strings.ReplaceAll(text, m.literal(m.AssetReference), m.literal(current))
	}
	return text
}

func (m AssetMapping) literal(ref string) string {
	if m.UseQuotes {
		return m.AssetClassName + `'"` + ref + `"'`
	}
	return m.AssetClassName + "'" + ref + "'"
}
