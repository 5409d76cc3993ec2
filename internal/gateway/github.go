// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/source"
)

const symlinkMode = "120000"

// Fetcher defines the behavior of a gateway for fetching repository contents from GitHub.
type Fetcher interface {
	FetchRepository(ctx context.Context, id domain.RepoID) (domain.RepositoryInfo, error)
	FetchTree(ctx context.Context, id domain.RepoID, ref string) ([]source.Entry, error)
	FetchBlob(ctx context.Context, id domain.RepoID, sha string) ([]byte, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

type repositoryNode struct {
	NameWithOwner    string
	URL              string `graphql:"url"`
	IsArchived       bool
	DefaultBranchRef *struct {
		Name string
	}
	PrimaryLanguage *struct {
		Name string
	}
}

// repositoryQuery resolves the metadata needed before listing files.
type repositoryQuery struct {
	Repository *repositoryNode `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// FetchRepository resolves default branch, primary language and clone URL.
func (g *GitHubGateway) FetchRepository(ctx context.Context, id domain.RepoID) (domain.RepositoryInfo, error) {
	g.logger.Printf("Fetching repository metadata for %s...", id)
	var q repositoryQuery
	variables := map[string]interface{}{
		"owner": githubv4.String(id.Owner),
		"name":  githubv4.String(id.Name),
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return domain.RepositoryInfo{}, classifyGraphQLError(id, err)
	}
	repo := q.Repository
	if repo == nil {
		return domain.RepositoryInfo{}, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, id)
	}

	info := domain.RepositoryInfo{
		ID:       id,
		Archived: repo.IsArchived,
	}
	if repo.URL != "" {
		info.CloneURL = strings.TrimSuffix(repo.URL, "/") + ".git"
	}
	if repo.DefaultBranchRef != nil {
		info.DefaultBranch = repo.DefaultBranchRef.Name
	}
	if repo.PrimaryLanguage != nil {
		info.PrimaryLanguage = repo.PrimaryLanguage.Name
	}
	return info, nil
}

// FetchTree lists every blob reachable from ref, sorted by path.
// Submodules and symlinks are not files of this repository and are dropped.
func (g *GitHubGateway) FetchTree(ctx context.Context, id domain.RepoID, ref string) ([]source.Entry, error) {
	g.logger.Printf("Fetching tree %s@%s using REST API...", id, ref)
	tree, _, err := g.restClient.Git.GetTree(ctx, id.Owner, id.Name, ref, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tree with REST API: %w", classifyRESTError(id, err))
	}
	if tree.GetTruncated() {
		g.logger.Printf("  Tree of %s is truncated at %d entries", id, len(tree.Entries))
		return nil, fmt.Errorf("%w: %s lists more files than the API returns, use --source clone", domain.ErrTreeTruncated, id)
	}

	entries := make([]source.Entry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() != "blob" || e.GetMode() == symlinkMode {
			continue
		}
		entries = append(entries, source.Entry{
			Path: e.GetPath(),
			SHA:  e.GetSHA(),
			Size: int64(e.GetSize()),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	g.logger.Printf("Completed fetching tree of %s: %d files.", id, len(entries))
	return entries, nil
}

// FetchBlob returns the raw content of a blob.
func (g *GitHubGateway) FetchBlob(ctx context.Context, id domain.RepoID, sha string) ([]byte, error) {
	content, _, err := g.restClient.Git.GetBlobRaw(ctx, id.Owner, id.Name, sha)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob %s with REST API: %w", sha, classifyRESTError(id, err))
	}
	return content, nil
}

func classifyRESTError(id domain.RepoID, err error) error {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		switch errResp.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %w", domain.ErrRepositoryNotFound, id, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s: %w", domain.ErrAccessDenied, id, err)
		}
	}
	return err
}

func classifyGraphQLError(id domain.RepoID, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Could not resolve to a Repository"), strings.Contains(msg, "NOT_FOUND"):
		return fmt.Errorf("%w: %s: %w", domain.ErrRepositoryNotFound, id, err)
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"):
		return fmt.Errorf("%w: %s: %w", domain.ErrAccessDenied, id, err)
	}
	return fmt.Errorf("failed to execute GraphQL query for repository: %w", err)
}
