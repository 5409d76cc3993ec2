package counter

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/source"
)

const defaultCacheSize = 4096

// NaiveCounter reads every file and counts physical lines. Counts are cached by
// blob SHA, so identical blobs across repositories are fetched once per run.
type NaiveCounter struct {
	workers int
	cache   *lru.Cache[string, int]
}

// NewNaiveCounter creates a counter reading up to workers files concurrently.
func NewNaiveCounter(workers, cacheSize int) (*NaiveCounter, error) {
	if workers <= 0 {
		workers = 1
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, int](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create line count cache: %w", err)
	}
	return &NaiveCounter{workers: workers, cache: cache}, nil
}

func (c *NaiveCounter) Name() string {
	return "naive"
}

// Count reads the source entries concurrently. Each goroutine writes only its
// own slot, so the result order follows the source order.
func (c *NaiveCounter) Count(ctx context.Context, src source.Source) (Result, error) {
	entries := src.Entries()
	lines := make([]int, len(entries))
	readErrs := make([]error, len(entries))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.workers)

	for i, entry := range entries {
		if entry.SHA != "" {
			if n, ok := c.cache.Get(entry.SHA); ok {
				lines[i] = n
				continue
			}
		}
		eg.Go(func() error {
			content, err := src.Read(egCtx, entry)
			if err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				readErrs[i] = err
				return nil
			}
			lines[i] = CountLines(content)
			if entry.SHA != "" {
				c.cache.Add(entry.SHA, lines[i])
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	result := Result{Files: make([]domain.FileCount, 0, len(entries))}
	for i, entry := range entries {
		if readErrs[i] != nil {
			result.Skipped = append(result.Skipped, domain.SkippedFile{Path: entry.Path, Reason: readErrs[i].Error()})
			continue
		}
		result.Files = append(result.Files, domain.FileCount{Path: entry.Path, Lines: lines[i]})
	}
	return result, nil
}
