package domain

import (
	"fmt"
	"strings"
)

// RepoID identifies a repository as owner/name.
type RepoID struct {
	Owner string
	Name  string
}

// ParseRepoID parses "owner/name".
func ParseRepoID(s string) (RepoID, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	owner, name = strings.TrimSpace(owner), strings.TrimSpace(name)
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return RepoID{}, fmt.Errorf("invalid repository identifier %q: expected owner/name", s)
	}
	return RepoID{Owner: owner, Name: name}, nil
}

func (r RepoID) String() string {
	return r.Owner + "/" + r.Name
}

// MarshalText lets RepoID be used as a JSON string and map key.
func (r RepoID) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (r *RepoID) UnmarshalText(text []byte) error {
	id, err := ParseRepoID(string(text))
	if err != nil {
		return err
	}
	*r = id
	return nil
}

// Less orders repositories by owner, then name.
func (r RepoID) Less(other RepoID) bool {
	if r.Owner != other.Owner {
		return r.Owner < other.Owner
	}
	return r.Name < other.Name
}

// RepositoryInfo is the metadata the gateway resolves for a repository.
type RepositoryInfo struct {
	ID              RepoID
	DefaultBranch   string
	PrimaryLanguage string
	Archived        bool
	CloneURL        string
}

// Team is a team definition from the teams configuration.
type Team struct {
	Name         string   `json:"name"`
	Organization string   `json:"organization"`
	Repositories []string `json:"repositories"`
}

// Members returns the team repositories qualified by the team organization.
func (t Team) Members() []RepoID {
	members := make([]RepoID, 0, len(t.Repositories))
	for _, name := range t.Repositories {
		members = append(members, RepoID{Owner: t.Organization, Name: strings.TrimSpace(name)})
	}
	return members
}

// LanguageRow is one per-language row of an external counting report.
type LanguageRow struct {
	Language string `json:"language"`
	Files    int    `json:"files"`
	Blank    int    `json:"blank"`
	Comment  int    `json:"comment"`
	Code     int    `json:"code"`
}

// Discrepancy records a language whose folded total differs from the external report.
type Discrepancy struct {
	Language string `json:"language"`
	Counted  int    `json:"counted"`
	External int    `json:"external"`
}

// SkippedFile is a file that could not be read; it does not fail the repository.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// RepositoryResult is the outcome of scanning one repository.
// Summary is nil when Err is set: a failed repository never looks like zero lines.
type RepositoryResult struct {
	Repository      RepoID             `json:"repository"`
	Archived        bool               `json:"archived,omitempty"`
	PrimaryLanguage string             `json:"primary_language,omitempty"`
	Summary         *RepositorySummary `json:"summary,omitempty"`
	Skipped         []SkippedFile      `json:"skipped,omitempty"`
	External        []LanguageRow      `json:"external,omitempty"`
	Discrepancies   []Discrepancy      `json:"discrepancies,omitempty"`
	Err             error              `json:"-"`
}

// Scanned reports whether the repository produced a summary.
func (r RepositoryResult) Scanned() bool {
	return r.Err == nil && r.Summary != nil
}
