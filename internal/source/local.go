package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local lists the files of a directory tree.
type Local struct {
	root    string
	entries []Entry
}

// OpenLocal walks root and returns its regular files, like the blob listing
// of a git tree. Directories whose files would all be Excluded are not
// entered; Countable applies the remaining rules.
func OpenLocal(root string) (*Local, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	var entries []Entry
	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if p == root {
				return nil
			}
			name := d.Name()
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		var size int64
		if fi, err := d.Info(); err == nil {
			size = fi.Size()
		}
		entries = append(entries, Entry{Path: filepath.ToSlash(rel), Size: size})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return &Local{root: root, entries: entries}, nil
}

func (l *Local) Root() string {
	return l.root
}

func (l *Local) Entries() []Entry {
	return l.entries
}

func (l *Local) Read(_ context.Context, entry Entry) ([]byte, error) {
	return os.ReadFile(filepath.Join(l.root, filepath.FromSlash(entry.Path)))
}
