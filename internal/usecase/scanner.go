package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/ghcount/internal/checkout"
	"github.com/naka-gawa/ghcount/internal/classifier"
	"github.com/naka-gawa/ghcount/internal/counter"
	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/gateway"
	"github.com/naka-gawa/ghcount/internal/language"
	"github.com/naka-gawa/ghcount/internal/source"
)

const defaultWorkers = 4

// Cloner makes a local checkout of a repository.
type Cloner interface {
	Clone(ctx context.Context, info domain.RepositoryInfo) (*checkout.Checkout, error)
}

// Options controls a scan.
type Options struct {
	// Workers bounds the number of repositories scanned at once.
	Workers int
	// FailFast aborts the run on the first repository failure.
	FailFast bool
	// Filter skips files of other languages before they are counted.
	Filter language.Filter
	// Clone scans a local checkout instead of the API tree. Required by the external counter.
	Clone bool
}

// Scanner is the use case for scanning repositories into summaries.
// It orchestrates fetching, counting, classification and folding.
type Scanner struct {
	fetcher  gateway.Fetcher
	counter  counter.LineCounter
	registry *language.Registry
	cloner   Cloner
	opts     Options
	logger   *log.Logger
}

// NewScanner creates a new Scanner instance. cloner may be nil unless opts.Clone is set.
func NewScanner(fetcher gateway.Fetcher, lc counter.LineCounter, registry *language.Registry, cloner Cloner, opts Options, logger *log.Logger) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Scanner{
		fetcher:  fetcher,
		counter:  lc,
		registry: registry,
		cloner:   cloner,
		opts:     opts,
		logger:   logger,
	}
}

// Scan scans every repository concurrently and returns one result per
// repository, sorted by identifier. A failed repository is recorded in its
// result and does not stop the others, unless FailFast is set, in which case
// the first failure is returned.
func (s *Scanner) Scan(ctx context.Context, repos []domain.RepoID) ([]domain.RepositoryResult, error) {
	s.logger.Printf("Usecase: Scanning %d repositories with %s counter...", len(repos), s.counter.Name())

	results := make([]domain.RepositoryResult, len(repos))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Workers)

	for i, id := range repos {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				results[i] = domain.RepositoryResult{Repository: id, Err: err}
				return err
			}
			results[i] = s.scanRepository(egCtx, id)
			if err := results[i].Err; err != nil {
				s.logger.Printf("Usecase: %s could not be scanned: %v", id, err)
				if s.opts.FailFast {
					return fmt.Errorf("scanning %s: %w", id, err)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Repository.Less(results[j].Repository)
	})
	s.logger.Println("Usecase: Scan complete.")
	return results, nil
}

func (s *Scanner) scanRepository(ctx context.Context, id domain.RepoID) domain.RepositoryResult {
	info, err := s.fetcher.FetchRepository(ctx, id)
	if err != nil {
		return domain.RepositoryResult{Repository: id, Err: err}
	}

	var result domain.RepositoryResult
	switch {
	case info.DefaultBranch == "":
		// Nothing was ever pushed: a real zero, not a failure.
		s.logger.Printf("Usecase: %s has no default branch", id)
		summary := Fold(id, nil)
		result = domain.RepositoryResult{Repository: id, Summary: &summary}
	case s.opts.Clone:
		result = s.scanClone(ctx, info)
	default:
		result = s.scanTree(ctx, info)
	}
	result.Archived = info.Archived
	result.PrimaryLanguage = info.PrimaryLanguage
	return result
}

func (s *Scanner) scanTree(ctx context.Context, info domain.RepositoryInfo) domain.RepositoryResult {
	id := info.ID
	entries, err := s.fetcher.FetchTree(ctx, id, info.DefaultBranch)
	if errors.Is(err, domain.ErrTreeTruncated) && s.cloner != nil {
		s.logger.Printf("Usecase: tree of %s is truncated, counting a clone instead", id)
		return s.scanClone(ctx, info)
	}
	if err != nil {
		return domain.RepositoryResult{Repository: id, Err: err}
	}
	return s.ScanSource(ctx, id, source.NewRemote(s.fetcher, id, entries))
}

func (s *Scanner) scanClone(ctx context.Context, info domain.RepositoryInfo) domain.RepositoryResult {
	id := info.ID
	if s.cloner == nil {
		return domain.RepositoryResult{Repository: id, Err: errors.New("no cloner configured")}
	}
	co, err := s.cloner.Clone(ctx, info)
	if err != nil {
		return domain.RepositoryResult{Repository: id, Err: err}
	}
	defer func() {
		if err := co.Close(); err != nil {
			s.logger.Printf("Usecase: failed to remove checkout of %s: %v", id, err)
		}
	}()
	return s.ScanLocal(ctx, id, co.Dir)
}

// ScanLocal scans a directory on disk as repository id.
func (s *Scanner) ScanLocal(ctx context.Context, id domain.RepoID, dir string) domain.RepositoryResult {
	local, err := source.OpenLocal(dir)
	if err != nil {
		return domain.RepositoryResult{Repository: id, Err: err}
	}
	return s.ScanSource(ctx, id, local)
}

// ScanSource counts, classifies and folds the countable files of src. The
// same files are counted whether src is a remote tree or a checkout.
func (s *Scanner) ScanSource(ctx context.Context, id domain.RepoID, src source.Source) domain.RepositoryResult {
	countable, err := source.Countable(ctx, src)
	if err != nil {
		return domain.RepositoryResult{Repository: id, Err: err}
	}
	selected := source.Select(countable, func(e source.Entry) bool {
		spec, ok := s.registry.Resolve(e.Path)
		return ok && s.opts.Filter.Allows(spec.Name)
	})

	counted, err := s.counter.Count(ctx, selected)
	if err != nil {
		return domain.RepositoryResult{Repository: id, Err: err}
	}

	records := make([]domain.FileRecord, 0, len(counted.Files))
	for _, fc := range counted.Files {
		rec, err := classifier.Record(s.registry, fc)
		if errors.Is(err, domain.ErrUnresolvedLanguage) {
			continue
		}
		records = append(records, rec)
	}
	summary := Fold(id, records)

	result := domain.RepositoryResult{
		Repository: id,
		Summary:    &summary,
		Skipped:    counted.Skipped,
	}
	if counted.External != nil {
		result.External = counter.FilterRows(counted.External, s.opts.Filter)
		result.Discrepancies = Reconcile(summary, result.External, s.registry)
		for _, d := range result.Discrepancies {
			s.logger.Printf("Usecase: %s %s counted %d lines, external tool reported %d", id, d.Language, d.Counted, d.External)
		}
	}
	return result
}
