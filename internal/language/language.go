// Package language provides the language registry mapping file extensions to
// languages and their test-detection rules.
package language

import "strings"

// MatchKind selects how a filename pattern is compared.
type MatchKind int

const (
	// Suffix matches the end of the file stem (name without extension).
	Suffix MatchKind = iota
	// Prefix matches the start of the file stem.
	Prefix
	// Contains matches anywhere in the full file name.
	Contains
	// Exact matches the whole stem.
	Exact
)

// Pattern is one test-filename rule. Values are case-sensitive.
type Pattern struct {
	Kind  MatchKind
	Value string
}

// Match reports whether the file name (without directory) satisfies the pattern.
func (p Pattern) Match(name, stem string) bool {
	switch p.Kind {
	case Prefix:
		return strings.HasPrefix(stem, p.Value) && stem != p.Value
	case Contains:
		return strings.Contains(name, p.Value)
	case Exact:
		return stem == p.Value
	default:
		return strings.HasSuffix(stem, p.Value) && stem != p.Value
	}
}

func (p Pattern) String() string {
	switch p.Kind {
	case Prefix:
		return p.Value + "*"
	case Contains:
		return "*" + p.Value + "*"
	case Exact:
		return p.Value
	default:
		return "*" + p.Value
	}
}

// Spec binds file extensions to the test-detection rules of one language.
// A Spec is read-only once it is part of a Registry.
type Spec struct {
	Name       string
	Extensions []string
	// Aliases are names external counting tools use for this language.
	Aliases []string
	// TestDirs are directory segment names, compared case-insensitively.
	TestDirs         []string
	TestFilePatterns []Pattern
}

// Names returns the identifier followed by its aliases.
func (s *Spec) Names() []string {
	return append([]string{s.Name}, s.Aliases...)
}

var (
	jvmTestDirs = []string{"test", "tests", "integrationtest", "testfixtures"}
	webTestDirs = []string{"__tests__", "test", "tests", "spec", "specs", "e2e", "cypress"}
	webPatterns = []Pattern{{Contains, ".test."}, {Contains, ".spec."}}
)

// builtin is the table behind Default. Adding a language is a change to this table only.
var builtin = []Spec{
	{
		Name:             "Go",
		Extensions:       []string{".go"},
		TestDirs:         []string{"testdata"},
		TestFilePatterns: []Pattern{{Suffix, "_test"}},
	},
	{
		Name:             "Rust",
		Extensions:       []string{".rs"},
		TestDirs:         []string{"test", "tests", "benches"},
		TestFilePatterns: []Pattern{{Suffix, "_test"}, {Prefix, "test_"}},
	},
	{
		Name:             "Python",
		Extensions:       []string{".py", ".pyi"},
		TestDirs:         []string{"test", "tests"},
		TestFilePatterns: []Pattern{{Prefix, "test_"}, {Suffix, "_test"}, {Exact, "conftest"}},
	},
	{
		Name:             "Java",
		Extensions:       []string{".java"},
		TestDirs:         jvmTestDirs,
		TestFilePatterns: []Pattern{{Prefix, "Test"}, {Suffix, "Test"}, {Suffix, "Tests"}, {Suffix, "IT"}},
	},
	{
		Name:             "Kotlin",
		Extensions:       []string{".kt", ".kts"},
		TestDirs:         jvmTestDirs,
		TestFilePatterns: []Pattern{{Prefix, "Test"}, {Suffix, "Test"}, {Suffix, "Tests"}, {Suffix, "IT"}},
	},
	{
		Name:             "Scala",
		Extensions:       []string{".scala"},
		TestDirs:         jvmTestDirs,
		TestFilePatterns: []Pattern{{Suffix, "Spec"}, {Suffix, "Test"}, {Suffix, "Suite"}},
	},
	{
		Name:             "JavaScript",
		Extensions:       []string{".js", ".jsx", ".mjs", ".cjs"},
		Aliases:          []string{"JSX"},
		TestDirs:         webTestDirs,
		TestFilePatterns: webPatterns,
	},
	{
		Name:             "TypeScript",
		Extensions:       []string{".ts", ".tsx", ".mts", ".cts"},
		Aliases:          []string{"TSX"},
		TestDirs:         webTestDirs,
		TestFilePatterns: webPatterns,
	},
	{
		Name:             "C",
		Extensions:       []string{".c", ".h"},
		Aliases:          []string{"C/C++ Header"},
		TestDirs:         []string{"test", "tests"},
		TestFilePatterns: []Pattern{{Prefix, "test_"}, {Suffix, "_test"}},
	},
	{
		Name:             "C++",
		Extensions:       []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"},
		TestDirs:         []string{"test", "tests"},
		TestFilePatterns: []Pattern{{Suffix, "_test"}, {Suffix, "_unittest"}, {Prefix, "test_"}},
	},
	{
		Name:             "C#",
		Extensions:       []string{".cs"},
		TestDirs:         []string{"test", "tests"},
		TestFilePatterns: []Pattern{{Suffix, "Test"}, {Suffix, "Tests"}},
	},
	{
		Name:             "Ruby",
		Extensions:       []string{".rb"},
		TestDirs:         []string{"spec", "test"},
		TestFilePatterns: []Pattern{{Suffix, "_spec"}, {Suffix, "_test"}},
	},
	{
		Name:             "PHP",
		Extensions:       []string{".php"},
		TestDirs:         []string{"test", "tests"},
		TestFilePatterns: []Pattern{{Suffix, "Test"}},
	},
	{
		Name:             "Swift",
		Extensions:       []string{".swift"},
		TestDirs:         []string{"tests"},
		TestFilePatterns: []Pattern{{Suffix, "Tests"}, {Suffix, "Test"}},
	},
}
