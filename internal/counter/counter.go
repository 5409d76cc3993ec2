// Package counter provides the line-counting backends: a built-in physical line
// counter and an adapter over the report of an external counting tool.
package counter

import (
	"bytes"
	"context"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/source"
)

// Result is what a backend produced for one repository.
type Result struct {
	Files   []domain.FileCount
	Skipped []domain.SkippedFile
	// External holds the external tool's per-language summary, if any.
	External []domain.LanguageRow
}

// LineCounter counts the lines of every file of a source. Both backends return
// the same shape so that aggregation does not depend on the backend.
type LineCounter interface {
	Name() string
	Count(ctx context.Context, src source.Source) (Result, error)
}

// CountLines counts physical lines. A trailing fragment without a final newline
// counts as one line; empty content counts as zero.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
