package ingest

import (
	"maps"
	"path/filepath"
	"slices"

	"github.com/joseph-ayodele/docrenamer/constants"
	"github.com/joseph-ayodele/docrenamer/internal/common"
)

// Registry maps supported extensions to content types. It is immutable once built.
type Registry struct {
	types map[string]string
}

// DefaultRegistry returns the built-in extension table.
func DefaultRegistry() *Registry {
	return &Registry{types: maps.Clone(constants.DefaultExtensions)}
}

// NewRegistry resolves the configured override against the default table:
// nothing set keeps the defaults, a list narrows them (unknown entries get a
// generic content type), a mapping is taken verbatim.
func NewRegistry(o common.ExtensionOverride) *Registry {
	switch {
	case o.Map != nil:
		types := make(map[string]string, len(o.Map))
		for ext, ct := range o.Map {
			if ext = constants.NormalizeExt(ext); ext != "" {
				types[ext] = ct
			}
		}
		return &Registry{types: types}
	case o.List != nil:
		types := make(map[string]string, len(o.List))
		for _, ext := range o.List {
			ext = constants.NormalizeExt(ext)
			if ext == "" {
				continue
			}
			if ct, ok := constants.DefaultExtensions[ext]; ok {
				types[ext] = ct
			} else {
				types[ext] = constants.GenericContentType
			}
		}
		return &Registry{types: types}
	default:
		return DefaultRegistry()
	}
}

// IsSupported reports whether path carries a registered extension (case-insensitive).
func (r *Registry) IsSupported(path string) bool {
	_, ok := r.types[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// MimeType returns the content type for path, or "" when unsupported.
func (r *Registry) MimeType(path string) string {
	return r.types[constants.NormalizeExt(filepath.Ext(path))]
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	keys := make([]string, 0, len(r.types))
	for k := range r.types {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
