package domain

import "errors"

var (
	// ErrUnresolvedLanguage marks a file whose extension is not registered. Non-fatal.
	ErrUnresolvedLanguage = errors.New("unresolved language")
	// ErrCountingBackend marks malformed or empty external counter output. Fatal for the repository.
	ErrCountingBackend = errors.New("counting backend error")
	// ErrRepositoryNotFound is fatal for the repository only.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrAccessDenied covers rejected or insufficient credentials.
	ErrAccessDenied = errors.New("repository access denied")
	// ErrTreeTruncated marks a remote listing the API cut short. Fatal for the repository
	// unless it can be cloned instead.
	ErrTreeTruncated = errors.New("repository tree truncated")
	// ErrTeamMemberNotScanned is a warning: a team lists a repository absent from the run.
	ErrTeamMemberNotScanned = errors.New("team member not scanned")
)
