package language

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// Registry resolves file paths to language specs. It is read-only after construction.
type Registry struct {
	specs  []*Spec
	byExt  map[string]*Spec
	byName map[string]*Spec
}

// NewRegistry builds a registry from specs. Every extension and every name or
// alias must map to exactly one spec.
func NewRegistry(specs []Spec) (*Registry, error) {
	r := &Registry{
		byExt:  make(map[string]*Spec),
		byName: make(map[string]*Spec),
	}
	for i := range specs {
		spec := freeze(specs[i])
		if spec.Name == "" {
			return nil, fmt.Errorf("language spec %d has no name", i)
		}
		for _, name := range spec.Names() {
			key := strings.ToLower(name)
			if prev, ok := r.byName[key]; ok {
				return nil, fmt.Errorf("language name %q registered by both %s and %s", name, prev.Name, spec.Name)
			}
			r.byName[key] = spec
		}
		for _, ext := range spec.Extensions {
			key := strings.ToLower(ext)
			if !strings.HasPrefix(key, ".") {
				return nil, fmt.Errorf("extension %q of %s must start with a dot", ext, spec.Name)
			}
			if prev, ok := r.byExt[key]; ok {
				return nil, fmt.Errorf("extension %q registered by both %s and %s", ext, prev.Name, spec.Name)
			}
			r.byExt[key] = spec
		}
		r.specs = append(r.specs, spec)
	}
	return r, nil
}

// freeze copies the slices of a spec so the caller's table cannot change it later.
func freeze(s Spec) *Spec {
	dirs := make([]string, len(s.TestDirs))
	for i, d := range s.TestDirs {
		dirs[i] = strings.ToLower(d)
	}
	return &Spec{
		Name:             s.Name,
		Extensions:       append([]string(nil), s.Extensions...),
		Aliases:          append([]string(nil), s.Aliases...),
		TestDirs:         dirs,
		TestFilePatterns: append([]Pattern(nil), s.TestFilePatterns...),
	}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(builtin)
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the process-wide registry built from the builtin table.
func Default() *Registry {
	return defaultRegistry()
}

// Resolve matches the extension of a slash-separated path, case-insensitively.
// Unknown extensions return false; such files are excluded from all counts.
func (r *Registry) Resolve(p string) (*Spec, bool) {
	ext := strings.ToLower(path.Ext(path.Base(p)))
	if ext == "" {
		return nil, false
	}
	spec, ok := r.byExt[ext]
	return spec, ok
}

// Lookup finds a spec by identifier or alias, case-insensitively.
func (r *Registry) Lookup(name string) (*Spec, bool) {
	spec, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return spec, ok
}

// Specs returns the registered specs sorted by name.
func (r *Registry) Specs() []*Spec {
	out := append([]*Spec(nil), r.specs...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Canonical maps a language name or alias to the registered identifier.
// Names that are not registered are returned unchanged.
func (r *Registry) Canonical(name string) string {
	if spec, ok := r.Lookup(name); ok {
		return spec.Name
	}
	return name
}
