package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve(t *testing.T) {
	registry := Default()

	testCases := []struct {
		name     string
		path     string
		expected string
		found    bool
	}{
		{name: "go", path: "cmd/main.go", expected: "Go", found: true},
		{name: "upper-case extension", path: "src/Main.JAVA", expected: "Java", found: true},
		{name: "tsx", path: "web/App.tsx", expected: "TypeScript", found: true},
		{name: "header", path: "include/x.h", expected: "C", found: true},
		{name: "cpp", path: "src/x.cc", expected: "C++", found: true},
		{name: "unknown extension", path: "README.md", found: false},
		{name: "no extension", path: "Makefile", found: false},
		{name: "dot in directory only", path: "v1.2/Makefile", found: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec, ok := registry.Resolve(tc.path)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.expected, spec.Name)
			}
		})
	}
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Spec{
		{Name: "A", Extensions: []string{".x"}},
		{Name: "B", Extensions: []string{".X"}},
	})
	assert.ErrorContains(t, err, "extension")

	_, err = NewRegistry([]Spec{
		{Name: "A", Extensions: []string{".a"}},
		{Name: "a", Extensions: []string{".b"}},
	})
	assert.ErrorContains(t, err, "name")

	_, err = NewRegistry([]Spec{{Name: "A", Extensions: []string{"a"}}})
	assert.ErrorContains(t, err, "dot")
}

func TestNewRegistry_CopiesTable(t *testing.T) {
	table := []Spec{{Name: "A", Extensions: []string{".a"}, TestDirs: []string{"Tests"}}}
	registry, err := NewRegistry(table)
	require.NoError(t, err)

	table[0].TestDirs[0] = "changed"
	spec, ok := registry.Resolve("x.a")
	require.True(t, ok)
	assert.Equal(t, []string{"tests"}, spec.TestDirs)
}

func TestRegistry_LookupAndCanonical(t *testing.T) {
	registry := Default()

	spec, ok := registry.Lookup("c/c++ header")
	require.True(t, ok)
	assert.Equal(t, "C", spec.Name)

	assert.Equal(t, "TypeScript", registry.Canonical("typescript"))
	assert.Equal(t, "Markdown", registry.Canonical("Markdown"))

	specs := registry.Specs()
	require.NotEmpty(t, specs)
	for i := 1; i < len(specs); i++ {
		assert.Less(t, specs[i-1].Name, specs[i].Name)
	}
}

func TestFilter(t *testing.T) {
	registry := Default()

	var zero Filter
	assert.False(t, zero.Active())
	assert.True(t, zero.Allows("Go"))

	filter, err := NewFilter(registry, []string{"java", " TypeScript ", ""})
	require.NoError(t, err)
	assert.True(t, filter.Active())
	assert.True(t, filter.Allows("Java"))
	assert.True(t, filter.Allows("typescript"))
	assert.False(t, filter.Allows("Go"))
	assert.True(t, filter.Allows("TSX"))
	assert.Equal(t, []string{"java", "typescript"}, filter.Names())

	_, err = NewFilter(registry, []string{"Cobol"})
	assert.ErrorContains(t, err, "unsupported language")
}

func TestPattern_Match(t *testing.T) {
	assert.True(t, Pattern{Suffix, "_test"}.Match("foo_test.go", "foo_test"))
	assert.False(t, Pattern{Suffix, "Test"}.Match("Test.java", "Test"))
	assert.True(t, Pattern{Prefix, "test_"}.Match("test_a.py", "test_a"))
	assert.True(t, Pattern{Contains, ".spec."}.Match("a.spec.ts", "a.spec"))
	assert.True(t, Pattern{Exact, "conftest"}.Match("conftest.py", "conftest"))
	assert.Equal(t, "*_test", Pattern{Suffix, "_test"}.String())
}
