// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package github implements the hosting.Client capability set for
// GitHub, on top of the official REST client (plus one GraphQL call:
// REST has no mutation for the draft flag).
package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/gizzahub/gzh-cli-machete/pkg/hosting"
)

// Client is the GitHub implementation of hosting.Client.
type Client struct {
	client       *gh.Client
	domain       string
	organization string
	repository   string
}

// NewClient builds a client for the given domain (github.com or a
// GitHub Enterprise host) and repository. An empty token yields an
// unauthenticated client, enough for public read access.
func NewClient(ctx context.Context, domain, organization, repository, token string) (*Client, error) {
	var underlying *gh.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		underlying = gh.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		underlying = gh.NewClient(nil)
	}
	if domain != "" && domain != "github.com" {
		baseURL := fmt.Sprintf("https://%s/api/v3/", domain)
		uploadURL := fmt.Sprintf("https://%s/api/uploads/", domain)
		var err error
		underlying, err = underlying.WithEnterpriseURLs(baseURL, uploadURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure GitHub Enterprise URLs for %s: %w", domain, err)
		}
	}
	return &Client{
		client:       underlying,
		domain:       domain,
		organization: organization,
		repository:   repository,
	}, nil
}

// OrgAndRepo returns the repository this client is bound to.
func (c *Client) OrgAndRepo() hosting.OrgAndRepo {
	return hosting.OrgAndRepo{Organization: c.organization, Repository: c.repository}
}

func (c *Client) wrapError(err error) error {
	if err == nil {
		return nil
	}
	var errorResponse *gh.ErrorResponse
	if ghErr, ok := err.(*gh.ErrorResponse); ok {
		errorResponse = ghErr
	}
	if errorResponse != nil && errorResponse.Response != nil {
		return &hosting.HTTPError{
			Provider:   "GitHub",
			StatusCode: errorResponse.Response.StatusCode,
			Msg:        errorResponse.Message,
		}
	}
	return err
}

func convertPullRequest(pr *gh.PullRequest) *hosting.PullRequest {
	result := &hosting.PullRequest{
		Number:        pr.GetNumber(),
		DisplayPrefix: "PR #",
		User:          pr.GetUser().GetLogin(),
		Base:          pr.GetBase().GetRef(),
		Head:          pr.GetHead().GetRef(),
		HeadRepoID:    pr.GetHead().GetRepo().GetID(),
		State:         pr.GetState(),
		Draft:         pr.GetDraft(),
		Title:         pr.GetTitle(),
		Description:   pr.GetBody(),
		HTMLURL:       pr.GetHTMLURL(),
	}
	return result
}

// CreatePullRequest opens a PR. PRs from forks are created in the base
// repository, with the head qualified as org:branch.
func (c *Client) CreatePullRequest(ctx context.Context, head string, headOrgRepo hosting.OrgAndRepo,
	base, title, description string, draft bool) (*hosting.PullRequest, error) {
	qualifiedHead := head
	if headOrgRepo.Organization != "" && headOrgRepo.Organization != c.organization {
		qualifiedHead = headOrgRepo.Organization + ":" + head
	}
	pr, _, err := c.client.PullRequests.Create(ctx, c.organization, c.repository, &gh.NewPullRequest{
		Title: gh.String(title),
		Head:  gh.String(qualifiedHead),
		Base:  gh.String(base),
		Body:  gh.String(description),
		Draft: gh.Bool(draft),
	})
	if err != nil {
		return nil, c.wrapError(err)
	}
	return convertPullRequest(pr), nil
}

// AddAssignees assigns users to the PR (as an issue, per the API).
func (c *Client) AddAssignees(ctx context.Context, number int, assignees []string) error {
	_, _, err := c.client.Issues.AddAssignees(ctx, c.organization, c.repository, number, assignees)
	return c.wrapError(err)
}

// AddReviewers requests reviews from the given users.
func (c *Client) AddReviewers(ctx context.Context, number int, reviewers []string) error {
	_, _, err := c.client.PullRequests.RequestReviewers(ctx, c.organization, c.repository, number,
		gh.ReviewersRequest{Reviewers: reviewers})
	return c.wrapError(err)
}

// SetBase retargets the PR onto a new base branch.
func (c *Client) SetBase(ctx context.Context, number int, base string) error {
	_, _, err := c.client.PullRequests.Edit(ctx, c.organization, c.repository, number, &gh.PullRequest{
		Base: &gh.PullRequestBranch{Ref: gh.String(base)},
	})
	return c.wrapError(err)
}

// SetDescription replaces the PR body.
func (c *Client) SetDescription(ctx context.Context, number int, description string) error {
	_, _, err := c.client.PullRequests.Edit(ctx, c.organization, c.repository, number, &gh.PullRequest{
		Body: gh.String(description),
	})
	return c.wrapError(err)
}

// SetMilestone attaches the PR to a milestone given by its number.
func (c *Client) SetMilestone(ctx context.Context, number int, milestone string) error {
	var milestoneNumber int
	if _, err := fmt.Sscanf(milestone, "%d", &milestoneNumber); err != nil {
		return fmt.Errorf("milestone must be a number, got %q", milestone)
	}
	_, _, err := c.client.Issues.Edit(ctx, c.organization, c.repository, number, &gh.IssueRequest{
		Milestone: gh.Int(milestoneNumber),
	})
	return c.wrapError(err)
}

// SetDraftStatus toggles the draft flag through the GraphQL API;
// REST offers no mutation for it.
func (c *Client) SetDraftStatus(ctx context.Context, number int, draft bool) (bool, error) {
	pr, found, err := c.PullRequestByNumber(ctx, number)
	if err != nil {
		return false, err
	}
	if !found {
		return false, &hosting.HTTPError{Provider: "GitHub", StatusCode: 404,
			Msg: fmt.Sprintf("PR #%d not found", number)}
	}
	if pr.Draft == draft {
		return false, nil
	}

	nodeID, err := c.pullRequestNodeID(ctx, number)
	if err != nil {
		return false, err
	}
	mutation := "convertPullRequestToDraft"
	if !draft {
		mutation = "markPullRequestReadyForReview"
	}
	query := fmt.Sprintf(`mutation {%s(input: {pullRequestId: "%s"}) {pullRequest {isDraft}}}`, mutation, nodeID)
	body := map[string]string{"query": query}
	req, err := c.client.NewRequest("POST", "graphql", body)
	if err != nil {
		return false, err
	}
	if _, err := c.client.Do(ctx, req, nil); err != nil {
		return false, c.wrapError(err)
	}
	return true, nil
}

func (c *Client) pullRequestNodeID(ctx context.Context, number int) (string, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, c.organization, c.repository, number)
	if err != nil {
		return "", c.wrapError(err)
	}
	return pr.GetNodeID(), nil
}

// OpenPullRequests lists all open PRs in the repository, following
// pagination.
func (c *Client) OpenPullRequests(ctx context.Context) ([]*hosting.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       "open",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var result []*hosting.PullRequest
	for {
		prs, resp, err := c.client.PullRequests.List(ctx, c.organization, c.repository, opts)
		if err != nil {
			return nil, c.wrapError(err)
		}
		for _, pr := range prs {
			result = append(result, convertPullRequest(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

// OpenPullRequestsByHead lists open PRs whose head is the given branch.
func (c *Client) OpenPullRequestsByHead(ctx context.Context, head string) ([]*hosting.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       "open",
		Head:        c.organization + ":" + head,
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var result []*hosting.PullRequest
	for {
		prs, resp, err := c.client.PullRequests.List(ctx, c.organization, c.repository, opts)
		if err != nil {
			return nil, c.wrapError(err)
		}
		for _, pr := range prs {
			result = append(result, convertPullRequest(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

// PullRequestByNumber fetches a single PR; the second result is false
// when the PR does not exist.
func (c *Client) PullRequestByNumber(ctx context.Context, number int) (*hosting.PullRequest, bool, error) {
	pr, resp, err := c.client.PullRequests.Get(ctx, c.organization, c.repository, number)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, false, nil
		}
		return nil, false, c.wrapError(err)
	}
	return convertPullRequest(pr), true, nil
}

// CurrentUserLogin returns the login of the authenticated user, or ""
// for an unauthenticated client.
func (c *Client) CurrentUserLogin(ctx context.Context) (string, error) {
	user, resp, err := c.client.Users.Get(ctx, "")
	if err != nil {
		if resp != nil && (resp.StatusCode == 401 || resp.StatusCode == 403) {
			return "", nil
		}
		return "", c.wrapError(err)
	}
	return user.GetLogin(), nil
}

// RepoByID resolves a repository by its numeric id; repositories get
// renamed and transferred, but the id stays.
func (c *Client) RepoByID(ctx context.Context, repoID int64) (*hosting.OrgRepoAndGitURL, bool, error) {
	repo, resp, err := c.client.Repositories.GetByID(ctx, repoID)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, false, nil
		}
		return nil, false, c.wrapError(err)
	}
	fullName := repo.GetFullName()
	org, name, _ := strings.Cut(fullName, "/")
	return &hosting.OrgRepoAndGitURL{
		Organization: org,
		Repository:   name,
		GitURL:       repo.GetCloneURL(),
	}, true, nil
}

// RefNameForPullRequest is the hidden ref exposing the PR's head.
func (c *Client) RefNameForPullRequest(number int) string {
	return fmt.Sprintf("pull/%d/head", number)
}
