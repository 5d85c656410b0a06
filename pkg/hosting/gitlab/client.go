// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package gitlab implements the hosting.Client capability set for
// GitLab merge requests.
package gitlab

import (
	"context"
	"fmt"
	"strings"

	gl "github.com/xanzy/go-gitlab"

	"github.com/gizzahub/gzh-cli-machete/pkg/hosting"
)

// Client is the GitLab implementation of hosting.Client.
type Client struct {
	client       *gl.Client
	domain       string
	organization string
	repository   string
}

// NewClient builds a client for the given domain and project.
func NewClient(ctx context.Context, domain, organization, repository, token string) (*Client, error) {
	var options []gl.ClientOptionFunc
	if domain != "" && domain != "gitlab.com" {
		options = append(options, gl.WithBaseURL(fmt.Sprintf("https://%s/api/v4", domain)))
	}
	underlying, err := gl.NewClient(token, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	return &Client{
		client:       underlying,
		domain:       domain,
		organization: organization,
		repository:   repository,
	}, nil
}

// OrgAndRepo returns the project this client is bound to.
func (c *Client) OrgAndRepo() hosting.OrgAndRepo {
	return hosting.OrgAndRepo{Organization: c.organization, Repository: c.repository}
}

func (c *Client) projectPath() string {
	return c.organization + "/" + c.repository
}

func (c *Client) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errResp, ok := err.(*gl.ErrorResponse); ok && errResp.Response != nil {
		return &hosting.HTTPError{
			Provider:   "GitLab",
			StatusCode: errResp.Response.StatusCode,
			Msg:        errResp.Message,
		}
	}
	return err
}

func convertMergeRequest(mr *gl.MergeRequest) *hosting.PullRequest {
	user := ""
	if mr.Author != nil {
		user = mr.Author.Username
	}
	return &hosting.PullRequest{
		Number:        mr.IID,
		DisplayPrefix: "MR !",
		User:          user,
		Base:          mr.TargetBranch,
		Head:          mr.SourceBranch,
		HeadRepoID:    int64(mr.SourceProjectID),
		State:         mr.State,
		Draft:         mr.Draft,
		Title:         mr.Title,
		Description:   mr.Description,
		HTMLURL:       mr.WebURL,
	}
}

// CreatePullRequest opens an MR in the bound project, with head as its
// source branch in that same project. headOrgRepo is not used, so no
// MR is created from a fork.
func (c *Client) CreatePullRequest(ctx context.Context, head string, headOrgRepo hosting.OrgAndRepo,
	base, title, description string, draft bool) (*hosting.PullRequest, error) {
	if draft && !strings.HasPrefix(title, "Draft: ") {
		// GitLab expresses draft status via the title prefix.
		title = "Draft: " + title
	}
	opts := &gl.CreateMergeRequestOptions{
		Title:        gl.Ptr(title),
		SourceBranch: gl.Ptr(head),
		TargetBranch: gl.Ptr(base),
		Description:  gl.Ptr(description),
	}
	mr, _, err := c.client.MergeRequests.CreateMergeRequest(c.projectPath(), opts, gl.WithContext(ctx))
	if err != nil {
		return nil, c.wrapError(err)
	}
	return convertMergeRequest(mr), nil
}

// AddAssignees assigns users to the MR.
func (c *Client) AddAssignees(ctx context.Context, number int, assignees []string) error {
	ids, err := c.userIDs(ctx, assignees)
	if err != nil {
		return err
	}
	_, _, err = c.client.MergeRequests.UpdateMergeRequest(c.projectPath(), number,
		&gl.UpdateMergeRequestOptions{AssigneeIDs: &ids}, gl.WithContext(ctx))
	return c.wrapError(err)
}

// AddReviewers requests reviews from the given users.
func (c *Client) AddReviewers(ctx context.Context, number int, reviewers []string) error {
	ids, err := c.userIDs(ctx, reviewers)
	if err != nil {
		return err
	}
	_, _, err = c.client.MergeRequests.UpdateMergeRequest(c.projectPath(), number,
		&gl.UpdateMergeRequestOptions{ReviewerIDs: &ids}, gl.WithContext(ctx))
	return c.wrapError(err)
}

func (c *Client) userIDs(ctx context.Context, usernames []string) ([]int, error) {
	var ids []int
	for _, username := range usernames {
		users, _, err := c.client.Users.ListUsers(&gl.ListUsersOptions{Username: gl.Ptr(username)},
			gl.WithContext(ctx))
		if err != nil {
			return nil, c.wrapError(err)
		}
		if len(users) == 0 {
			return nil, fmt.Errorf("GitLab user %q not found", username)
		}
		ids = append(ids, users[0].ID)
	}
	return ids, nil
}

// SetBase retargets the MR onto a new target branch.
func (c *Client) SetBase(ctx context.Context, number int, base string) error {
	_, _, err := c.client.MergeRequests.UpdateMergeRequest(c.projectPath(), number,
		&gl.UpdateMergeRequestOptions{TargetBranch: gl.Ptr(base)}, gl.WithContext(ctx))
	return c.wrapError(err)
}

// SetDescription replaces the MR description.
func (c *Client) SetDescription(ctx context.Context, number int, description string) error {
	_, _, err := c.client.MergeRequests.UpdateMergeRequest(c.projectPath(), number,
		&gl.UpdateMergeRequestOptions{Description: gl.Ptr(description)}, gl.WithContext(ctx))
	return c.wrapError(err)
}

// SetMilestone attaches the MR to a milestone given by its id.
func (c *Client) SetMilestone(ctx context.Context, number int, milestone string) error {
	var milestoneID int
	if _, err := fmt.Sscanf(milestone, "%d", &milestoneID); err != nil {
		return fmt.Errorf("milestone must be a number, got %q", milestone)
	}
	_, _, err := c.client.MergeRequests.UpdateMergeRequest(c.projectPath(), number,
		&gl.UpdateMergeRequestOptions{MilestoneID: gl.Ptr(milestoneID)}, gl.WithContext(ctx))
	return c.wrapError(err)
}

// SetDraftStatus toggles the draft marker, which GitLab keeps in the
// title prefix.
func (c *Client) SetDraftStatus(ctx context.Context, number int, draft bool) (bool, error) {
	mr, found, err := c.PullRequestByNumber(ctx, number)
	if err != nil {
		return false, err
	}
	if !found {
		return false, &hosting.HTTPError{Provider: "GitLab", StatusCode: 404,
			Msg: fmt.Sprintf("MR !%d not found", number)}
	}
	if mr.Draft == draft {
		return false, nil
	}
	title := mr.Title
	if draft {
		title = "Draft: " + title
	} else {
		title = strings.TrimPrefix(title, "Draft: ")
	}
	_, _, err = c.client.MergeRequests.UpdateMergeRequest(c.projectPath(), number,
		&gl.UpdateMergeRequestOptions{Title: gl.Ptr(title)}, gl.WithContext(ctx))
	if err != nil {
		return false, c.wrapError(err)
	}
	return true, nil
}

// OpenPullRequests lists all open MRs in the project, following
// pagination.
func (c *Client) OpenPullRequests(ctx context.Context) ([]*hosting.PullRequest, error) {
	opts := &gl.ListProjectMergeRequestsOptions{
		State:       gl.Ptr("opened"),
		ListOptions: gl.ListOptions{PerPage: 100},
	}
	var result []*hosting.PullRequest
	for {
		mrs, resp, err := c.client.MergeRequests.ListProjectMergeRequests(c.projectPath(), opts,
			gl.WithContext(ctx))
		if err != nil {
			return nil, c.wrapError(err)
		}
		for _, mr := range mrs {
			result = append(result, convertMergeRequest(mr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

// OpenPullRequestsByHead lists open MRs whose source branch is head.
func (c *Client) OpenPullRequestsByHead(ctx context.Context, head string) ([]*hosting.PullRequest, error) {
	opts := &gl.ListProjectMergeRequestsOptions{
		State:        gl.Ptr("opened"),
		SourceBranch: gl.Ptr(head),
		ListOptions:  gl.ListOptions{PerPage: 100},
	}
	var result []*hosting.PullRequest
	for {
		mrs, resp, err := c.client.MergeRequests.ListProjectMergeRequests(c.projectPath(), opts,
			gl.WithContext(ctx))
		if err != nil {
			return nil, c.wrapError(err)
		}
		for _, mr := range mrs {
			result = append(result, convertMergeRequest(mr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

// PullRequestByNumber fetches a single MR by IID.
func (c *Client) PullRequestByNumber(ctx context.Context, number int) (*hosting.PullRequest, bool, error) {
	mr, resp, err := c.client.MergeRequests.GetMergeRequest(c.projectPath(), number, nil, gl.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, false, nil
		}
		return nil, false, c.wrapError(err)
	}
	return convertMergeRequest(mr), true, nil
}

// CurrentUserLogin returns the username of the authenticated user.
func (c *Client) CurrentUserLogin(ctx context.Context) (string, error) {
	user, resp, err := c.client.Users.CurrentUser(gl.WithContext(ctx))
	if err != nil {
		if resp != nil && (resp.StatusCode == 401 || resp.StatusCode == 403) {
			return "", nil
		}
		return "", c.wrapError(err)
	}
	return user.Username, nil
}

// RepoByID resolves a project by its numeric id.
func (c *Client) RepoByID(ctx context.Context, repoID int64) (*hosting.OrgRepoAndGitURL, bool, error) {
	project, resp, err := c.client.Projects.GetProject(int(repoID), nil, gl.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, false, nil
		}
		return nil, false, c.wrapError(err)
	}
	// The namespace may consist of multiple /-separated segments;
	// only the last one is the project name.
	org, name := "", project.PathWithNamespace
	if idx := strings.LastIndex(project.PathWithNamespace, "/"); idx >= 0 {
		org = project.PathWithNamespace[:idx]
		name = project.PathWithNamespace[idx+1:]
	}
	return &hosting.OrgRepoAndGitURL{
		Organization: org,
		Repository:   name,
		GitURL:       project.HTTPURLToRepo,
	}, true, nil
}

// RefNameForPullRequest is the hidden ref exposing the MR's head.
func (c *Client) RefNameForPullRequest(number int) string {
	return fmt.Sprintf("merge-requests/%d/head", number)
}
