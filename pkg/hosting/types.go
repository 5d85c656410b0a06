// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package hosting

import (
	"context"
	"fmt"
)

// PullRequest is the provider-independent view of a pull/merge request.
type PullRequest struct {
	Number int

	// DisplayPrefix is "PR #" for GitHub and "MR !" for GitLab.
	DisplayPrefix string

	User        string
	Base        string
	Head        string
	HeadRepoID  int64
	State       string
	Draft       bool
	Title       string
	Description string
	HTMLURL     string
}

// DisplayText renders e.g. "PR #42".
func (pr *PullRequest) DisplayText() string {
	return fmt.Sprintf("%s%d", pr.DisplayPrefix, pr.Number)
}

// ShortDisplayText renders e.g. "#42" or "!42".
func (pr *PullRequest) ShortDisplayText() string {
	text := pr.DisplayText()
	for i, r := range text {
		if r == ' ' {
			return text[i+1:]
		}
	}
	return text
}

func (pr *PullRequest) String() string {
	return fmt.Sprintf("%s by %s: %s -> %s", pr.DisplayText(), pr.User, pr.Head, pr.Base)
}

// Copy returns a shallow copy of the pull request.
func (pr *PullRequest) Copy() *PullRequest {
	copied := *pr
	return &copied
}

// OrgAndRepo identifies a repository within a provider.
type OrgAndRepo struct {
	Organization string
	Repository   string
}

func (o OrgAndRepo) String() string {
	return o.Organization + "/" + o.Repository
}

// OrgRepoAndRemote adds the git remote that corresponds to the repo.
type OrgRepoAndRemote struct {
	Organization string
	Repository   string
	Remote       string
}

// OrgAndRepo drops the remote.
func (o OrgRepoAndRemote) OrgAndRepo() OrgAndRepo {
	return OrgAndRepo{Organization: o.Organization, Repository: o.Repository}
}

// OrgRepoAndGitURL is the result of resolving a repository by id.
type OrgRepoAndGitURL struct {
	Organization string
	Repository   string
	GitURL       string
}

// Client is the capability set every provider implements.
type Client interface {
	// CreatePullRequest opens a PR with the given head (possibly in a
	// fork identified by headOrgRepo) against base in the client's repo.
	CreatePullRequest(ctx context.Context, head string, headOrgRepo OrgAndRepo,
		base, title, description string, draft bool) (*PullRequest, error)

	AddAssignees(ctx context.Context, number int, assignees []string) error
	AddReviewers(ctx context.Context, number int, reviewers []string) error

	SetBase(ctx context.Context, number int, base string) error
	SetDescription(ctx context.Context, number int, description string) error
	SetMilestone(ctx context.Context, number int, milestone string) error

	// SetDraftStatus toggles the draft flag; reports whether a toggle
	// actually happened (false when the status was already as desired).
	SetDraftStatus(ctx context.Context, number int, draft bool) (bool, error)

	OpenPullRequests(ctx context.Context) ([]*PullRequest, error)
	OpenPullRequestsByHead(ctx context.Context, head string) ([]*PullRequest, error)
	PullRequestByNumber(ctx context.Context, number int) (*PullRequest, bool, error)

	CurrentUserLogin(ctx context.Context) (string, error)

	// RepoByID resolves a numeric repository id to its current org,
	// name and git URL (repos get renamed and transferred).
	RepoByID(ctx context.Context, repoID int64) (*OrgRepoAndGitURL, bool, error)

	// RefNameForPullRequest is the hidden ref under which the provider
	// exposes the PR's head commits.
	RefNameForPullRequest(number int) string

	// OrgAndRepo returns the repository this client is bound to.
	OrgAndRepo() OrgAndRepo
}

// HTTPError is an error from a provider API, annotated with enough
// context for an actionable message.
type HTTPError struct {
	Provider   string
	StatusCode int
	Msg        string
}

func (e *HTTPError) Error() string {
	switch e.StatusCode {
	case 401, 403:
		return fmt.Sprintf("%s API returned %d: %s\nCheck that the %s API token is valid and has the required scope",
			e.Provider, e.StatusCode, e.Msg, e.Provider)
	case 404:
		return fmt.Sprintf("%s API returned 404: %s\nCheck that the repository and the request number exist",
			e.Provider, e.Msg)
	case 409:
		return fmt.Sprintf("%s API returned 409: %s", e.Provider, e.Msg)
	case 422:
		return fmt.Sprintf("%s API returned 422 (validation failed): %s", e.Provider, e.Msg)
	}
	if e.StatusCode >= 500 {
		return fmt.Sprintf("%s API returned %d: %s\nThe service looks unavailable, try again later",
			e.Provider, e.StatusCode, e.Msg)
	}
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, e.Msg)
}
