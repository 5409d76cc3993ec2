// Package sink publishes finished reports outside the process.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/naka-gawa/ghcount/internal/report"
)

// Sink receives the report of a run.
type Sink interface {
	Name() string
	Publish(ctx context.Context, runID string, r report.Report) error
}

// Multi publishes to every sink and joins their errors. An empty Multi is a no-op.
type Multi []Sink

func (m Multi) Name() string {
	return "multi"
}

func (m Multi) Publish(ctx context.Context, runID string, r report.Report) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, runID, r); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
