// Package domain contains the core data structures and domain logic for the application.
package domain

import "sort"

// Category tells whether a file is production or test code.
// Every classified file has exactly one category.
type Category int

const (
	Production Category = iota
	Test
)

func (c Category) String() string {
	if c == Test {
		return "test"
	}
	return "production"
}

// MarshalText renders the category as "production" or "test".
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// LineCounts holds the production and test line totals of one language.
type LineCounts struct {
	Production int `json:"production"`
	Test       int `json:"test"`
}

// Total returns production plus test lines.
func (c LineCounts) Total() int {
	return c.Production + c.Test
}

// Add sums another LineCounts into c.
func (c *LineCounts) Add(other LineCounts) {
	c.Production += other.Production
	c.Test += other.Test
}

// AddCategory adds n lines to the cell selected by category.
func (c *LineCounts) AddCategory(category Category, n int) {
	if category == Test {
		c.Test += n
		return
	}
	c.Production += n
}

// LanguageCounts maps a language identifier to its line totals.
type LanguageCounts map[string]LineCounts

// Merge adds every language of other into m.
func (m LanguageCounts) Merge(other LanguageCounts) {
	for lang, counts := range other {
		cell := m[lang]
		cell.Add(counts)
		m[lang] = cell
	}
}

// Clone returns an independent copy of m.
func (m LanguageCounts) Clone() LanguageCounts {
	out := make(LanguageCounts, len(m))
	for lang, counts := range m {
		out[lang] = counts
	}
	return out
}

// Languages returns the language identifiers of m in sorted order.
func (m LanguageCounts) Languages() []string {
	langs := make([]string, 0, len(m))
	for lang := range m {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Total sums all languages of m.
func (m LanguageCounts) Total() LineCounts {
	var total LineCounts
	for _, counts := range m {
		total.Add(counts)
	}
	return total
}

// FileCount is the line count a counting backend produced for one path.
type FileCount struct {
	Path  string `json:"path"`
	Lines int    `json:"lines"`
}

// FileRecord is a classified and counted file, ready to be folded.
type FileRecord struct {
	Path     string
	Language string
	Category Category
	Lines    int
}

// RepositorySummary holds the per-language totals of a single repository.
// It is the core domain entity of this application.
type RepositorySummary struct {
	Repository RepoID         `json:"repository"`
	Languages  LanguageCounts `json:"languages"`
}

// TeamSummary sums the summaries of the team's repositories scanned in this run.
// Members that were not scanned are listed in NotFound and contribute nothing.
type TeamSummary struct {
	Name         string         `json:"name"`
	Repositories []RepoID       `json:"repositories"`
	Languages    LanguageCounts `json:"languages"`
	NotFound     []RepoID       `json:"not_found,omitempty"`
}

// OrganizationSummary sums every scanned repository exactly once.
type OrganizationSummary struct {
	Repositories int            `json:"repositories"`
	Languages    LanguageCounts `json:"languages"`
}
