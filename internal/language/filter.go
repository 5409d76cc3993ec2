package language

import (
	"fmt"
	"sort"
	"strings"
)

// Filter is an allow-list of language identifiers. The zero value allows everything.
type Filter struct {
	allowed map[string]struct{}
	// accepted also holds the aliases of the allowed languages.
	accepted map[string]struct{}
}

// NewFilter validates names against the registry and returns an allow-list of
// their canonical identifiers. An empty list yields a filter that allows everything.
func NewFilter(r *Registry, names []string) (Filter, error) {
	var f Filter
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		spec, ok := r.Lookup(name)
		if !ok {
			return Filter{}, fmt.Errorf("unsupported language %q", name)
		}
		if f.allowed == nil {
			f.allowed = make(map[string]struct{})
			f.accepted = make(map[string]struct{})
		}
		f.allowed[strings.ToLower(spec.Name)] = struct{}{}
		for _, alias := range spec.Names() {
			f.accepted[strings.ToLower(alias)] = struct{}{}
		}
	}
	return f, nil
}

// Active reports whether the filter restricts anything.
func (f Filter) Active() bool {
	return len(f.allowed) > 0
}

// Allows reports whether the language, or a language it is an alias of, passes the filter.
func (f Filter) Allows(language string) bool {
	if !f.Active() {
		return true
	}
	_, ok := f.accepted[strings.ToLower(language)]
	return ok
}

// Names returns the allowed identifiers in lower case, sorted.
func (f Filter) Names() []string {
	names := make([]string, 0, len(f.allowed))
	for name := range f.allowed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
