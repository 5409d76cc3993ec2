package counter

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/source"
)

const excludeDirs = "--exclude-dir=.git,node_modules,target,build,dist,vendor"

// AdapterCounter takes line counts from an external tool instead of counting
// itself. It only replaces counting: the per-file rows it returns are still
// classified by path like any other backend's.
type AdapterCounter struct {
	runner Runner
}

// NewAdapterCounter creates an adapter over runner.
func NewAdapterCounter(runner Runner) *AdapterCounter {
	return &AdapterCounter{runner: runner}
}

func (a *AdapterCounter) Name() string {
	return "cloc"
}

// Count runs the tool twice on the checkout of src: once by file for the
// counts that get classified, once for the per-language summary used to
// reconcile. Files not listed by src are dropped from the by-file rows.
func (a *AdapterCounter) Count(ctx context.Context, src source.Source) (Result, error) {
	var root string
	if rooted, ok := src.(source.Rooted); ok {
		root = rooted.Root()
	}
	if root == "" {
		return Result{}, fmt.Errorf("%w: external counter needs a local checkout", domain.ErrCountingBackend)
	}

	byFile, err := a.runner.Run(ctx, root, "--by-file", "--csv", "--quiet", excludeDirs, ".")
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrCountingBackend, err)
	}
	rows, err := ParseByFile(byFile)
	if err != nil {
		return Result{}, err
	}

	summary, err := a.runner.Run(ctx, root, "--csv", "--quiet", excludeDirs, ".")
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrCountingBackend, err)
	}
	external, err := ParseReport(summary)
	if err != nil {
		return Result{}, err
	}

	wanted := make(map[string]struct{}, len(src.Entries()))
	for _, entry := range src.Entries() {
		wanted[entry.Path] = struct{}{}
	}

	result := Result{External: external}
	for _, row := range rows {
		p := relativePath(row.Path)
		if _, ok := wanted[p]; !ok {
			continue
		}
		result.Files = append(result.Files, domain.FileCount{Path: p, Lines: row.Code})
	}
	return result, nil
}

// relativePath normalizes the file names the tool prints ("./a/b.go", "a\b.go").
func relativePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
