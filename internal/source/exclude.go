package source

import (
	"context"
	"fmt"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

const gitignorePath = ".gitignore"

var skipDirs = map[string]struct{}{
	"node_modules":  {},
	"vendor":        {},
	"target":        {},
	"build":         {},
	"dist":          {},
	"__pycache__":   {},
	"venv":          {},
	".venv":         {},
	".tox":          {},
	".mypy_cache":   {},
	".pytest_cache": {},
}

// Excluded reports whether a slash-separated repository path lies under a
// dependency, build or hidden directory, or is itself a hidden file.
func Excluded(p string) bool {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ".") {
			return true
		}
		if i < len(segments)-1 {
			if _, skip := skipDirs[segment]; skip {
				return true
			}
		}
	}
	return false
}

// Countable keeps the entries of src that are not Excluded and not matched by
// the repository's root .gitignore. Every source goes through it, so the
// files counted do not depend on where the listing came from.
func Countable(ctx context.Context, src Source) (*Selection, error) {
	gi, err := rootIgnore(ctx, src)
	if err != nil {
		return nil, err
	}
	return Select(src, func(e Entry) bool {
		if Excluded(e.Path) {
			return false
		}
		return gi == nil || !gi.MatchesPath(e.Path)
	}), nil
}

func rootIgnore(ctx context.Context, src Source) (*ignore.GitIgnore, error) {
	for _, entry := range src.Entries() {
		if entry.Path != gitignorePath {
			continue
		}
		content, err := src.Read(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", gitignorePath, err)
		}
		return ignore.CompileIgnoreLines(strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")...), nil
	}
	return nil, nil
}
