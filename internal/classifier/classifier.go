// Package classifier decides whether a source file is production or test code.
package classifier

import (
	"path"
	"strings"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/language"
)

// Classify returns the category of a slash-separated path for the given language.
// The first matching rule wins:
//  1. a directory segment equal (case-insensitively) to one of the spec's test dirs;
//  2. a file name matching one of the spec's test-filename patterns;
//  3. otherwise production.
//
// Directory rules compare whole segments, so "contest/" never matches "test".
func Classify(p string, spec *language.Spec) domain.Category {
	if spec == nil {
		return domain.Production
	}
	p = strings.Trim(path.Clean("/"+strings.ReplaceAll(p, "\\", "/")), "/")
	dir, name := path.Split(p)

	if dir != "" {
		for _, segment := range strings.Split(strings.TrimSuffix(dir, "/"), "/") {
			if isTestDir(strings.ToLower(segment), spec.TestDirs) {
				return domain.Test
			}
		}
	}

	stem := strings.TrimSuffix(name, path.Ext(name))
	for _, pattern := range spec.TestFilePatterns {
		if pattern.Match(name, stem) {
			return domain.Test
		}
	}
	return domain.Production
}

func isTestDir(segment string, dirs []string) bool {
	for _, dir := range dirs {
		if segment == dir {
			return true
		}
	}
	return false
}

// Record resolves and classifies a counted file. It returns
// domain.ErrUnresolvedLanguage when the extension is not registered.
func Record(r *language.Registry, fc domain.FileCount) (domain.FileRecord, error) {
	spec, ok := r.Resolve(fc.Path)
	if !ok {
		return domain.FileRecord{}, domain.ErrUnresolvedLanguage
	}
	return domain.FileRecord{
		Path:     fc.Path,
		Language: spec.Name,
		Category: Classify(fc.Path, spec),
		Lines:    fc.Lines,
	}, nil
}
