// Package checkout makes shallow local clones of repositories for tools that
// need files on disk.
package checkout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/naka-gawa/ghcount/internal/domain"
)

const (
	gitBinary      = "git"
	defaultTimeout = 10 * time.Minute
	githubPrefix   = "https://github.com/"
)

// Checkout is a temporary clone. Close removes it.
type Checkout struct {
	Dir string
}

// Close removes the clone directory.
func (c *Checkout) Close() error {
	if c == nil || c.Dir == "" {
		return nil
	}
	return os.RemoveAll(c.Dir)
}

// Cloner clones repositories with the git binary.
type Cloner struct {
	token   string
	timeout time.Duration
	logger  *log.Logger
}

// NewCloner creates a cloner authenticating GitHub URLs with token.
func NewCloner(token string, timeout time.Duration, logger *log.Logger) *Cloner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Cloner{token: token, timeout: timeout, logger: logger}
}

// Clone makes a depth-1 clone of the repository's default branch in a new
// temporary directory.
func (c *Cloner) Clone(ctx context.Context, info domain.RepositoryInfo) (*Checkout, error) {
	if info.CloneURL == "" {
		return nil, fmt.Errorf("no clone URL for %s", info.ID)
	}
	gitPath, err := exec.LookPath(gitBinary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, gitBinary)
	}

	dir, err := os.MkdirTemp("", "ghcount_"+info.ID.Name+"_")
	if err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"clone", "--depth", "1", "--quiet"}
	if info.DefaultBranch != "" {
		args = append(args, "--branch", info.DefaultBranch)
	}
	args = append(args, authenticatedURL(info.CloneURL, c.token), dir)

	c.logger.Printf("Cloning %s into %s...", info.ID, dir)
	cmd := exec.CommandContext(ctx, gitPath, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(dir)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: cloning %s after %v", fault.ErrTimeout, info.ID, c.timeout)
		}
		return nil, classifyCloneError(info.ID, c.redact(stderr.String()), err)
	}
	return &Checkout{Dir: dir}, nil
}

func classifyCloneError(id domain.RepoID, stderr string, err error) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "repository not found"):
		return fmt.Errorf("%w: %s: %s", domain.ErrRepositoryNotFound, id, strings.TrimSpace(stderr))
	case strings.Contains(lower, "authentication failed"), strings.Contains(lower, "access denied"),
		strings.Contains(lower, "permission denied"):
		return fmt.Errorf("%w: %s: %s", domain.ErrAccessDenied, id, strings.TrimSpace(stderr))
	}
	return fmt.Errorf("%w: cloning %s: %s: %w", fault.ErrCommandFailure, id, strings.TrimSpace(stderr), err)
}

// authenticatedURL embeds token into GitHub HTTPS URLs so private repositories can be cloned.
func authenticatedURL(cloneURL, token string) string {
	if token == "" || !strings.HasPrefix(cloneURL, githubPrefix) {
		return cloneURL
	}
	return "https://x-access-token:" + token + "@github.com/" + strings.TrimPrefix(cloneURL, githubPrefix)
}

func (c *Cloner) redact(s string) string {
	if c.token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.token, "***")
}
