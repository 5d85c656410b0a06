// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/gizzahub/gzh-cli-machete/pkg/hosting"
)

// fakeHostingClient records mutations; only the capabilities used by
// the tested flows are modeled.
type fakeHostingClient struct {
	prs         []*hosting.PullRequest
	user        string
	nextNumber  int
	setBases    []string
	setDescs    []int
	created     []*hosting.PullRequest
	assignees   map[int][]string
	reviewers   map[int][]string
}

func newFakeHostingClient(user string, prs ...*hosting.PullRequest) *fakeHostingClient {
	return &fakeHostingClient{
		prs:        prs,
		user:       user,
		nextNumber: 100,
		assignees:  map[int][]string{},
		reviewers:  map[int][]string{},
	}
}

func (c *fakeHostingClient) CreatePullRequest(ctx context.Context, head string, headOrgRepo hosting.OrgAndRepo,
	base, title, description string, draft bool) (*hosting.PullRequest, error) {
	c.nextNumber++
	pr := &hosting.PullRequest{
		Number:        c.nextNumber,
		DisplayPrefix: "PR #",
		User:          c.user,
		Base:          base,
		Head:          head,
		Title:         title,
		Description:   description,
		Draft:         draft,
		State:         "open",
		HTMLURL:       fmt.Sprintf("https://github.com/acme/repo/pull/%d", c.nextNumber),
	}
	c.prs = append(c.prs, pr)
	c.created = append(c.created, pr)
	return pr, nil
}

func (c *fakeHostingClient) AddAssignees(ctx context.Context, number int, assignees []string) error {
	c.assignees[number] = append(c.assignees[number], assignees...)
	return nil
}

func (c *fakeHostingClient) AddReviewers(ctx context.Context, number int, reviewers []string) error {
	c.reviewers[number] = append(c.reviewers[number], reviewers...)
	return nil
}

func (c *fakeHostingClient) SetBase(ctx context.Context, number int, base string) error {
	c.setBases = append(c.setBases, fmt.Sprintf("%d->%s", number, base))
	for _, pr := range c.prs {
		if pr.Number == number {
			pr.Base = base
		}
	}
	return nil
}

func (c *fakeHostingClient) SetDescription(ctx context.Context, number int, description string) error {
	c.setDescs = append(c.setDescs, number)
	for _, pr := range c.prs {
		if pr.Number == number {
			pr.Description = description
		}
	}
	return nil
}

func (c *fakeHostingClient) SetMilestone(ctx context.Context, number int, milestone string) error {
	return nil
}

func (c *fakeHostingClient) SetDraftStatus(ctx context.Context, number int, draft bool) (bool, error) {
	for _, pr := range c.prs {
		if pr.Number == number && pr.Draft != draft {
			pr.Draft = draft
			return true, nil
		}
	}
	return false, nil
}

func (c *fakeHostingClient) OpenPullRequests(ctx context.Context) ([]*hosting.PullRequest, error) {
	return c.prs, nil
}

func (c *fakeHostingClient) OpenPullRequestsByHead(ctx context.Context, head string) ([]*hosting.PullRequest, error) {
	var result []*hosting.PullRequest
	for _, pr := range c.prs {
		if pr.Head == head {
			result = append(result, pr)
		}
	}
	return result, nil
}

func (c *fakeHostingClient) PullRequestByNumber(ctx context.Context, number int) (*hosting.PullRequest, bool, error) {
	for _, pr := range c.prs {
		if pr.Number == number {
			return pr, true, nil
		}
	}
	return nil, false, nil
}

func (c *fakeHostingClient) CurrentUserLogin(ctx context.Context) (string, error) {
	return c.user, nil
}

func (c *fakeHostingClient) RepoByID(ctx context.Context, repoID int64) (*hosting.OrgRepoAndGitURL, bool, error) {
	return nil, false, nil
}

func (c *fakeHostingClient) RefNameForPullRequest(number int) string {
	return fmt.Sprintf("pull/%d/head", number)
}

func (c *fakeHostingClient) OrgAndRepo() hosting.OrgAndRepo {
	return hosting.OrgAndRepo{Organization: "acme", Repository: "repo"}
}

func hostingSession(client hosting.Client) *HostingSession {
	return &HostingSession{
		Spec:   hosting.GitHubSpec,
		Client: client,
		Domain: "github.com",
		OrgRepoRemote: hosting.OrgRepoAndRemote{
			Organization: "acme", Repository: "repo", Remote: "origin",
		},
	}
}

// PR #15 has base root although feature's parent in the layout is
// branch-1: retargeting switches the base and updates the annotation.
func TestRetargetPullRequest(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("branch-1 work", c1)
	c3 := f.commit("feature work", c2)
	f.setBranch("root", c1)
	f.setBranch("branch-1", c2)
	f.setBranch("feature", c3)
	f.currentBranch = "feature"

	state, out := newTestState(t, f)
	state.Layout = mustParseLayout(t, "root\n  branch-1\n    feature\n")

	pr := &hosting.PullRequest{
		Number: 15, DisplayPrefix: "PR #", User: "alice",
		Base: "root", Head: "feature", State: "open", Title: "Feature",
	}
	client := newFakeHostingClient("alice", pr)
	state.Hosting = hostingSession(client)

	if err := state.RetargetPullRequest(ctx, "feature", false, false); err != nil {
		t.Fatalf("RetargetPullRequest: %v", err)
	}

	if len(client.setBases) != 1 || client.setBases[0] != "15->branch-1" {
		t.Errorf("setBases = %v, want [15->branch-1]", client.setBases)
	}
	if !strings.Contains(out.String(), "switched to branch-1") {
		t.Errorf("output %q lacks 'switched to branch-1'", out.String())
	}
	if a, ok := state.Layout.Annotation("feature"); !ok || a.Text != "PR #15" {
		t.Errorf("annotation = %+v, want PR #15", a)
	}

	// Second invocation: the base already matches.
	out.Reset()
	if err := state.RetargetPullRequest(ctx, "feature", false, false); err != nil {
		t.Fatalf("second RetargetPullRequest: %v", err)
	}
	if len(client.setBases) != 1 {
		t.Errorf("setBases = %v, want no additional retarget", client.setBases)
	}
	if !strings.Contains(out.String(), "already branch-1") {
		t.Errorf("output %q lacks 'already branch-1'", out.String())
	}
}

func TestRetargetFailsForRootBranch(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	f.setBranch("root", c1)
	f.currentBranch = "root"

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "root\n")

	pr := &hosting.PullRequest{Number: 1, DisplayPrefix: "PR #", Base: "other", Head: "root", State: "open"}
	state.Hosting = hostingSession(newFakeHostingClient("alice", pr))

	if err := state.RetargetPullRequest(ctx, "root", false, false); err == nil {
		t.Error("expected error when retargeting a root branch")
	}
}

// Layout master -> a -> b where a PR exists for a. Creating a PR for b
// targets a and embeds the generated chain intro in the description.
func TestCreatePullRequestWithChainIntro(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("a work", c1)
	c3 := f.commit("b work\n\nbody of b", c2)

	f.remotes = []string{"origin"}
	f.setBranch("master", c1)
	f.appendReflog("refs/heads/master", c1, "commit (initial): init")
	f.setRemoteBranch("origin/master", c1)
	f.counterparts["master"] = "origin/master"

	f.setBranch("a", c2)
	f.appendReflog("refs/heads/a", c2, "commit: a work")
	f.setRemoteBranch("origin/a", c2)
	f.counterparts["a"] = "origin/a"

	f.setBranch("b", c3)
	f.appendReflog("refs/heads/b", c3, "commit: b work")
	f.setRemoteBranch("origin/b", c3)
	f.counterparts["b"] = "origin/b"

	f.currentBranch = "b"

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "master\n  a\n    b\n")

	prForA := &hosting.PullRequest{
		Number: 14, DisplayPrefix: "PR #", User: "alice",
		Base: "master", Head: "a", State: "open", Title: "A",
	}
	client := newFakeHostingClient("alice", prForA)
	state.Hosting = hostingSession(client)

	if err := state.CreatePullRequest(ctx, "b", CreatePROptions{}); err != nil {
		t.Fatalf("CreatePullRequest: %v", err)
	}

	if len(client.created) != 1 {
		t.Fatalf("created = %v, want exactly one PR", client.created)
	}
	pr := client.created[0]
	if pr.Head != "b" || pr.Base != "a" {
		t.Errorf("created PR %s -> %s, want b -> a", pr.Head, pr.Base)
	}
	if !strings.Contains(pr.Description, hosting.StartGeneratedComment) {
		t.Errorf("description %q lacks the generated intro block", pr.Description)
	}
	idxA := strings.Index(pr.Description, "PR #14")
	idxThis := strings.Index(pr.Description, fmt.Sprintf("PR #%d (THIS ONE)", pr.Number))
	if idxA < 0 || idxThis < 0 || idxA > idxThis {
		t.Errorf("description %q should list PR #14 before the new PR marked (THIS ONE)", pr.Description)
	}
	if got := client.assignees[pr.Number]; len(got) != 1 || got[0] != "alice" {
		t.Errorf("assignees = %v, want [alice]", got)
	}
	if a, ok := state.Layout.Annotation("b"); !ok || !strings.Contains(a.Text, fmt.Sprintf("PR #%d", pr.Number)) {
		t.Errorf("annotation of b = %+v, want the new PR number", a)
	}
}

func TestAnnoPRs(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("a work", c1)
	f.setBranch("master", c1)
	f.setBranch("a", c2)
	f.currentBranch = "master"

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "master\n  a rebase=no\n")

	pr := &hosting.PullRequest{
		Number: 7, DisplayPrefix: "PR #", User: "bob",
		Base: "master", Head: "a", State: "open",
	}
	state.Hosting = hostingSession(newFakeHostingClient("alice", pr))

	if err := state.AnnoPRs(ctx); err != nil {
		t.Fatalf("AnnoPRs: %v", err)
	}
	a, ok := state.Layout.Annotation("a")
	if !ok {
		t.Fatal("annotation missing")
	}
	if a.Text != "PR #7 (bob)" {
		t.Errorf("annotation text = %q, want PR #7 (bob)", a.Text)
	}
	// The rebase=no qualifier must survive the annotation sync.
	if a.Qualifiers.Rebase {
		t.Error("rebase=no qualifier lost during annotation sync")
	}
}

func TestUpdatedPRDescriptionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	f.setBranch("master", c1)
	f.currentBranch = "master"

	state, _ := newTestState(t, f)

	base := &hosting.PullRequest{
		Number: 1, DisplayPrefix: "PR #", Base: "master", Head: "a", State: "open", Title: "A",
	}
	pr := &hosting.PullRequest{
		Number: 2, DisplayPrefix: "PR #", Base: "a", Head: "b", State: "open", Title: "B",
		Description: "Hand-written text.\n",
	}
	state.Hosting = hostingSession(newFakeHostingClient("alice", base, pr))

	first, err := state.UpdatedPRDescription(ctx, pr)
	if err != nil {
		t.Fatalf("UpdatedPRDescription: %v", err)
	}
	if !strings.Contains(first, hosting.StartGeneratedComment) {
		t.Fatalf("description %q lacks the intro block", first)
	}
	if !strings.Contains(first, "Hand-written text.") {
		t.Errorf("description %q lost the hand-written part", first)
	}

	pr.Description = first
	second, err := state.UpdatedPRDescription(ctx, pr)
	if err != nil {
		t.Fatalf("second UpdatedPRDescription: %v", err)
	}
	if first != second {
		t.Errorf("regeneration is not idempotent:\nfirst:  %q\nsecond: %q", first, second)
	}
}
