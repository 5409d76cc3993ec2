package counter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"time"

	"github.com/farcloser/primordium/fault"
)

const (
	defaultClocBinary = "cloc"
	// Large monorepos take a while; the timeout only guards against a hung process.
	defaultClocTimeout = 10 * time.Minute
)

// Runner invokes the external counting tool in dir and returns its stdout.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// ClocRunner runs the cloc binary.
type ClocRunner struct {
	binary  string
	timeout time.Duration
	logger  *log.Logger
}

// NewClocRunner creates a runner for binary ("cloc" when empty).
func NewClocRunner(binary string, timeout time.Duration, logger *log.Logger) *ClocRunner {
	if binary == "" {
		binary = defaultClocBinary
	}
	if timeout <= 0 {
		timeout = defaultClocTimeout
	}
	return &ClocRunner{binary: binary, timeout: timeout, logger: logger}
}

func (r *ClocRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	binPath, err := exec.LookPath(r.binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, r.binary)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Printf("  Running %s %v in %s", r.binary, args, dir)
	cmd := exec.CommandContext(ctx, binPath, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, r.timeout)
		}
		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}
	return output, nil
}
