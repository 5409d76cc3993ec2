// Package source provides the file listings of a repository, either from the
// GitHub API or from a local checkout.
package source

import (
	"context"
	"fmt"

	"github.com/naka-gawa/ghcount/internal/domain"
)

// Entry is one file of a repository listing. Path is slash-separated and relative
// to the repository root. SHA is the git blob id when known.
type Entry struct {
	Path string
	SHA  string
	Size int64
}

// Source is an ordered file listing plus access to file content.
type Source interface {
	Entries() []Entry
	Read(ctx context.Context, entry Entry) ([]byte, error)
}

// Rooted is implemented by sources backed by a directory on disk.
type Rooted interface {
	Root() string
}

// BlobFetcher fetches raw blob content by SHA.
type BlobFetcher interface {
	FetchBlob(ctx context.Context, id domain.RepoID, sha string) ([]byte, error)
}

// Remote serves a GitHub tree listing, fetching content blob by blob.
type Remote struct {
	fetcher BlobFetcher
	repo    domain.RepoID
	entries []Entry
}

// NewRemote wraps a tree listing of repo.
func NewRemote(fetcher BlobFetcher, repo domain.RepoID, entries []Entry) *Remote {
	return &Remote{fetcher: fetcher, repo: repo, entries: entries}
}

func (r *Remote) Entries() []Entry {
	return r.entries
}

func (r *Remote) Read(ctx context.Context, entry Entry) ([]byte, error) {
	if entry.SHA == "" {
		return nil, fmt.Errorf("no blob sha for %s", entry.Path)
	}
	return r.fetcher.FetchBlob(ctx, r.repo, entry.SHA)
}

// Selection is a filtered view over another source.
type Selection struct {
	Source
	entries []Entry
}

// Select keeps the entries for which keep returns true, preserving order.
func Select(src Source, keep func(Entry) bool) *Selection {
	var entries []Entry
	for _, entry := range src.Entries() {
		if keep(entry) {
			entries = append(entries, entry)
		}
	}
	return &Selection{Source: src, entries: entries}
}

func (s *Selection) Entries() []Entry {
	return s.entries
}

// Root returns the directory of the underlying source, or "" if it is not on disk.
func (s *Selection) Root() string {
	if rooted, ok := s.Source.(Rooted); ok {
		return rooted.Root()
	}
	return ""
}
