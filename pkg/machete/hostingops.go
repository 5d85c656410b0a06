// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/git"
	"github.com/gizzahub/gzh-cli-machete/pkg/hosting"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// CreatePROptions configure CreatePullRequest.
type CreatePROptions struct {
	Draft                     bool
	Title                     string
	UpdateRelatedDescriptions bool
}

// CreatePullRequest opens a PR from head to its layout parent. The base
// branch is pushed first when the remote lacks it; the title falls back
// to the first unique commit's subject; the description comes from the
// repository's PR template unless forceDescriptionFromCommitMessage is
// set. After creation, the description gets the machete-managed intro,
// the milestone/reviewers from <git-dir>/info are applied, and the
// current user is assigned.
func (s *State) CreatePullRequest(ctx context.Context, head refs.LocalBranch, opts CreatePROptions) error {
	h := s.Hosting
	if h == nil {
		return unexpectedf("code hosting session not initialized")
	}
	spec := h.Spec
	base, ok := s.Layout.Parent(head)
	if !ok {
		return unexpectedf("could not determine %s branch for %s: branch %s is a root branch",
			spec.BaseBranchName, spec.PRShortName, head)
	}

	baseRemote := h.OrgRepoRemote.Remote
	s.Printf("Checking if %s branch %s exists in %s remote... ",
		spec.BaseBranchName, cliutil.Bold(base.String()), cliutil.Bold(baseRemote))
	baseExistsOnRemote, err := s.Git.RemoteBranchExists(ctx, baseRemote, base)
	if err != nil {
		return err
	}
	if baseExistsOnRemote {
		s.Printf("YES\n")
	} else {
		s.Printf("NO\n")
		if err := s.handleUntrackedBranch(ctx, base, baseRemote, false, true); err != nil {
			return err
		}
	}

	// Make sure the head branch itself is on the remote before the
	// provider is asked to open a PR for it.
	remoteStatus, headRemote, err := s.CombinedRemoteSyncStatus(ctx, head)
	if err != nil {
		return err
	}
	switch remoteStatus {
	case RemoteUntracked:
		if err := s.handleUntrackedBranch(ctx, head, baseRemote, false, true); err != nil {
			return err
		}
	case RemoteAhead, RemoteDivergedAndNewer:
		if stop, err := s.handleAheadOrDivergedForPush(ctx, head, headRemote, remoteStatus, false); err != nil || stop {
			return err
		}
	}

	currentUser := h.CurrentUser(ctx)

	forkPoint, _, err := s.ForkPoint(ctx, head, true)
	if err != nil {
		return err
	}
	commits, err := s.Git.CommitsBetween(ctx, forkPoint.Revision(), head.Revision())
	if err != nil {
		return err
	}

	title := opts.Title
	if title == "" {
		if fileTitle, ok := s.slurpGitInfoFile(ctx, "title"); ok {
			title = fileTitle
		} else if len(commits) > 0 {
			// An empty range of unique commits is still possible here
			// (e.g. a yellow edge); the branch name is the fallback.
			title = commits[0].Subject
		} else {
			title = head.String()
		}
	}

	description, err := s.prDescriptionForNewPR(ctx, commits)
	if err != nil {
		return err
	}

	draftPrefix := ""
	if opts.Draft {
		draftPrefix = "draft "
	}
	s.Printf("Creating a %s%s from %s to %s... ", draftPrefix, spec.PRShortName,
		cliutil.Bold(head.String()), cliutil.Bold(base.String()))
	pr, err := h.Client.CreatePullRequest(ctx, head.String(), h.OrgRepoRemote.OrgAndRepo(),
		base.String(), title, description, opts.Draft)
	if err != nil {
		return err
	}
	s.Printf("OK, see `%s`\n", pr.HTMLURL)
	h.allOpenPRs = append(h.allOpenPRs, pr)

	style, err := s.introStyleFromConfig(ctx)
	if err != nil {
		return err
	}
	// If the base branch was missing from the remote, no chain of PRs
	// above the new one can exist, so in the up-only styles the intro
	// generation can be skipped outright.
	if baseExistsOnRemote || style == hosting.IntroStyleFull || style == hosting.IntroStyleFullNoBranches {
		newDescription, err := s.UpdatedPRDescription(ctx, pr)
		if err != nil {
			return err
		}
		if strings.TrimSpace(newDescription) != strings.TrimSpace(description) {
			s.Printf("Updating description of %s to include the chain of %ss... ", pr.DisplayText(), spec.PRShortName)
			if err := h.Client.SetDescription(ctx, pr.Number, newDescription); err != nil {
				return err
			}
			pr.Description = newDescription
			s.Printf("OK\n")
		}
	}

	if milestone, ok := s.slurpGitInfoFile(ctx, "milestone"); ok && strings.TrimSpace(milestone) != "" {
		milestone = strings.TrimSpace(milestone)
		s.Printf("Setting milestone of %s to %s... ", pr.DisplayText(), cliutil.Bold(milestone))
		if err := h.Client.SetMilestone(ctx, pr.Number, milestone); err != nil {
			return err
		}
		s.Printf("OK\n")
	}

	if currentUser != "" {
		s.Printf("Adding %s as assignee to %s... ", cliutil.Bold(currentUser), pr.DisplayText())
		if err := h.Client.AddAssignees(ctx, pr.Number, []string{currentUser}); err != nil {
			return err
		}
		s.Printf("OK\n")
	}

	if reviewersFile, ok := s.slurpGitInfoFile(ctx, "reviewers"); ok {
		var reviewers []string
		for _, line := range strings.Split(reviewersFile, "\n") {
			if reviewer := strings.TrimSpace(line); reviewer != "" {
				reviewers = append(reviewers, reviewer)
			}
		}
		if len(reviewers) > 0 {
			s.Printf("Adding %s as reviewer(s) to %s... ",
				cliutil.Bold(strings.Join(reviewers, ", ")), pr.DisplayText())
			if err := h.Client.AddReviewers(ctx, pr.Number, reviewers); err != nil {
				return err
			}
			s.Printf("OK\n")
		}
	}

	annotation, err := s.prAnnotation(ctx, pr, currentUser)
	if err != nil {
		return err
	}
	s.setPRAnnotation(head, annotation)
	if err := s.SaveLayout(false); err != nil {
		return err
	}

	if opts.UpdateRelatedDescriptions {
		return s.updateRelatedPRDescriptions(ctx, pr)
	}
	return nil
}

// prDescriptionForNewPR picks the initial description body of a new PR:
// the commit message body when forced by config, otherwise
// <git-dir>/info/description, then the repository's PR template, then
// the commit message body.
func (s *State) prDescriptionForNewPR(ctx context.Context, commits []git.Commit) (string, error) {
	spec := s.Hosting.Spec
	force, err := s.Git.BoolConfig(ctx, spec.ConfigKeys.ForceDescriptionFromCommitMessage, false)
	if err != nil {
		return "", err
	}
	fromCommit := func() string {
		if len(commits) == 0 {
			return ""
		}
		message, err := s.Git.CommitMessageByRevision(ctx, commits[0].Hash.Revision())
		if err != nil {
			return ""
		}
		// Strip the subject line, keep the body.
		if _, body, found := strings.Cut(message, "\n"); found {
			return strings.TrimSpace(body)
		}
		return ""
	}
	if force {
		return fromCommit(), nil
	}
	if description, ok := s.slurpGitInfoFile(ctx, "description"); ok {
		return description, nil
	}
	rootDir, err := s.Git.RootDir(ctx)
	if err != nil {
		return "", err
	}
	templatePaths := prTemplatePaths(spec, rootDir)
	for _, path := range templatePaths {
		if data, err := os.ReadFile(path); err == nil {
			return string(data), nil
		}
	}
	return fromCommit(), nil
}

func prTemplatePaths(spec hosting.Spec, rootDir string) []string {
	if spec.Name == "gitlab" {
		return []string{
			filepath.Join(rootDir, ".gitlab", "merge_request_templates", "Default.md"),
		}
	}
	return []string{
		filepath.Join(rootDir, ".github", "pull_request_template.md"),
		filepath.Join(rootDir, ".github", "PULL_REQUEST_TEMPLATE.md"),
		filepath.Join(rootDir, "pull_request_template.md"),
		filepath.Join(rootDir, "docs", "pull_request_template.md"),
	}
}

func (s *State) slurpGitInfoFile(ctx context.Context, name string) (string, bool) {
	mainGitDir, err := s.Git.MainGitDir(ctx)
	if err != nil {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(mainGitDir, "info", name))
	if err != nil {
		return "", false
	}
	return strings.TrimRight(string(data), "\n"), true
}

// RetargetPullRequest sets the base of the sole open PR with head to
// the branch's layout parent, refreshes descriptions and the branch
// annotation.
func (s *State) RetargetPullRequest(ctx context.Context, head refs.LocalBranch,
	ignoreIfMissing, updateRelatedDescriptions bool) error {
	h := s.Hosting
	spec := h.Spec
	pr, err := h.SolePRForHead(ctx, head, ignoreIfMissing)
	if err != nil || pr == nil {
		return err
	}

	newBase, ok := s.Layout.Parent(head)
	if !ok {
		return fmt.Errorf("branch %s does not have a parent branch (it is a root) "+
			"even though there is an open %s to %s.\n"+
			"Consider modifying the branch layout file (`git machete edit`) so that %s is a child of %s",
			cliutil.Bold(head.String()), pr.DisplayText(), cliutil.Bold(pr.Base),
			cliutil.Bold(head.String()), cliutil.Bold(pr.Base))
	}

	prWithOriginalBase := pr.Copy()
	if pr.Base != newBase.String() {
		if err := h.Client.SetBase(ctx, pr.Number, newBase.String()); err != nil {
			return err
		}
		s.Printf("%s branch of %s has been switched to %s\n",
			capitalize(spec.BaseBranchName), pr.DisplayText(), cliutil.Bold(newBase.String()))
		pr.Base = newBase.String()
	} else {
		s.Printf("%s branch of %s is already %s\n",
			capitalize(spec.BaseBranchName), pr.DisplayText(), cliutil.Bold(newBase.String()))
	}

	newDescription, err := s.UpdatedPRDescription(ctx, pr)
	if err != nil {
		return err
	}
	if pr.Description != newDescription {
		if err := h.Client.SetDescription(ctx, pr.Number, newDescription); err != nil {
			return err
		}
		pr.Description = newDescription
		s.Printf("Description of %s has been updated\n", pr.DisplayText())
	}

	annotation, err := s.prAnnotation(ctx, pr, h.CurrentUser(ctx))
	if err != nil {
		return err
	}
	s.setPRAnnotation(head, annotation)
	if err := s.SaveLayout(false); err != nil {
		return err
	}

	if updateRelatedDescriptions {
		s.Printf("Updating descriptions of other %ss...\n", spec.PRShortName)
		return s.updateRelatedPRDescriptions(ctx, prWithOriginalBase, pr)
	}
	return nil
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

// UpdatePRDescriptionsOptions select whose PRs get their descriptions
// refreshed.
type UpdatePRDescriptionsOptions struct {
	All     bool
	By      string
	Mine    bool
	Related bool
}

// UpdatePullRequestDescriptions regenerates the intro block of the
// selected PRs.
func (s *State) UpdatePullRequestDescriptions(ctx context.Context, opts UpdatePRDescriptionsOptions) error {
	h := s.Hosting
	currentUser := h.CurrentUser(ctx)
	if opts.Mine && currentUser == "" {
		return fmt.Errorf("could not determine current user name, please check that the %s API token provided by one of the: %s is valid",
			h.Spec.DisplayName, hosting.TokenProvidersMessage(h.Spec))
	}

	var relatedTo *hosting.PullRequest
	if opts.Related {
		head, err := s.Git.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		relatedTo, err = h.SolePRForHead(ctx, head, false)
		if err != nil {
			return err
		}
	}

	allPRs, err := h.AllOpenPRs(ctx)
	if err != nil {
		return err
	}
	by := opts.By
	if opts.Mine {
		by = currentUser
	}
	for _, pr := range allPRs {
		switch {
		case opts.All:
		case by != "" && pr.User == by:
		case relatedTo != nil && (pr.Number == relatedTo.Number ||
			pr.Base == relatedTo.Head || relatedTo.Base == pr.Head):
		default:
			continue
		}
		newDescription, err := s.UpdatedPRDescription(ctx, pr)
		if err != nil {
			return err
		}
		if pr.Description != newDescription {
			if err := h.Client.SetDescription(ctx, pr.Number, newDescription); err != nil {
				return err
			}
			pr.Description = newDescription
			s.Printf("Description of %s (%s -> %s) has been updated\n",
				pr.DisplayText(), cliutil.Bold(pr.Head), cliutil.Bold(pr.Base))
		}
	}
	return nil
}

// AnnoPRs sets the annotation of every managed branch that is the head
// of an open PR to that PR's number (and author, when not the current
// user).
func (s *State) AnnoPRs(ctx context.Context) error {
	h := s.Hosting
	allPRs, err := h.AllOpenPRs(ctx)
	if err != nil {
		return err
	}
	currentUser := h.CurrentUser(ctx)
	for _, pr := range allPRs {
		branch := refs.LocalBranch(pr.Head)
		if !s.Layout.IsManaged(branch) {
			continue
		}
		annotation, err := s.prAnnotation(ctx, pr, currentUser)
		if err != nil {
			return err
		}
		s.setPRAnnotation(branch, annotation)
		s.Printf("Annotating %s as `%s`\n", cliutil.Bold(branch.String()), annotation)
	}
	return s.SaveLayout(false)
}

// RestackPullRequest makes the PR of the current branch safe to
// force-push (toggling it to draft when needed), syncs the branch with
// its remote, and toggles the draft flag back.
func (s *State) RestackPullRequest(ctx context.Context) error {
	h := s.Hosting
	head, err := s.Git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if err := s.ExpectInManaged(head); err != nil {
		return err
	}
	pr, err := h.SolePRForHead(ctx, head, false)
	if err != nil {
		return err
	}

	// Update first (rebase onto the parent), then push with the PR
	// temporarily in draft so reviewers don't get pinged mid-rewrite.
	toggledDraft := false
	if !pr.Draft {
		toggled, err := h.Client.SetDraftStatus(ctx, pr.Number, true)
		if err != nil {
			return err
		}
		if toggled {
			s.Printf("%s has been temporarily marked as draft\n", pr.DisplayText())
			toggledDraft = true
		}
	}

	if err := s.Update(ctx, UpdateOptions{}); err != nil {
		return err
	}

	remoteStatus, remote, err := s.CombinedRemoteSyncStatus(ctx, head)
	if err != nil {
		return err
	}
	switch remoteStatus {
	case RemoteAhead, RemoteDivergedAndNewer:
		if _, err := s.pushBranch(ctx, head, remote, remoteStatus == RemoteDivergedAndNewer); err != nil {
			return err
		}
	case RemoteUntracked:
		if err := s.handleUntrackedBranch(ctx, head, h.OrgRepoRemote.Remote, false, true); err != nil {
			return err
		}
	}

	if toggledDraft {
		if _, err := h.Client.SetDraftStatus(ctx, pr.Number, false); err != nil {
			return err
		}
		s.Printf("%s has been marked as ready for review again\n", pr.DisplayText())
	}
	return nil
}

// CheckoutPRs fetches and checks out the head branches of the given
// PRs, walking their base chains until a managed branch or a trunk is
// reached, and attaches the missing links to the layout.
func (s *State) CheckoutPRs(ctx context.Context, numbers []int, all, mine bool, by string) error {
	h := s.Hosting
	spec := h.Spec
	allPRs, err := h.AllOpenPRs(ctx)
	if err != nil {
		return err
	}

	var requested []*hosting.PullRequest
	switch {
	case len(numbers) > 0:
		for _, number := range numbers {
			pr, found, err := h.Client.PullRequestByNumber(ctx, number)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%s %s%d is not found in %s",
					spec.PRShortName, spec.PROrdinalChar, number, h.Client.OrgAndRepo())
			}
			requested = append(requested, pr)
		}
	case all:
		requested = allPRs
	case mine:
		currentUser := h.CurrentUser(ctx)
		if currentUser == "" {
			return fmt.Errorf("could not determine current user name, please check that the %s API token provided by one of the: %s is valid",
				spec.DisplayName, hosting.TokenProvidersMessage(spec))
		}
		for _, pr := range allPRs {
			if pr.User == currentUser {
				requested = append(requested, pr)
			}
		}
	case by != "":
		for _, pr := range allPRs {
			if pr.User == by {
				requested = append(requested, pr)
			}
		}
	default:
		return fmt.Errorf("no %ss selected; pass numbers or one of --all, --mine, --by", spec.PRShortName)
	}
	if len(requested) == 0 {
		s.Printf("No %ss to check out\n", spec.PRShortName)
		return nil
	}

	for _, pr := range requested {
		if err := s.checkoutPRChain(ctx, pr, allPRs); err != nil {
			return err
		}
	}

	if len(numbers) == 1 {
		head := refs.LocalBranch(requested[0].Head)
		if err := s.Git.Checkout(ctx, head); err != nil {
			return err
		}
		s.Printf("Switched to local branch %s\n", cliutil.Bold(head.String()))
	}
	return s.SaveLayout(false)
}

// checkoutPRChain materializes the chain of PRs below pr: every head
// branch is fetched and created locally when missing, and the layout
// gains the base->head links.
func (s *State) checkoutPRChain(ctx context.Context, pr *hosting.PullRequest, allPRs []*hosting.PullRequest) error {
	h := s.Hosting

	// Collect the chain from pr down to a root: pr, its base PR, etc.
	chain := []*hosting.PullRequest{pr}
	visited := map[int]bool{pr.Number: true}
	current := pr
	for {
		var basePR *hosting.PullRequest
		for _, candidate := range allPRs {
			if candidate.Head == current.Base && !visited[candidate.Number] {
				basePR = candidate
				break
			}
		}
		if basePR == nil {
			break
		}
		visited[basePR.Number] = true
		chain = append(chain, basePR)
		current = basePR
	}

	// Bottom of the chain first: the trunk-most PR's base.
	for i := len(chain) - 1; i >= 0; i-- {
		link := chain[i]
		base, err := refs.NewLocalBranch(link.Base)
		if err != nil {
			return err
		}
		head, err := refs.NewLocalBranch(link.Head)
		if err != nil {
			return err
		}

		if err := s.ensurePRBranchExists(ctx, link, head); err != nil {
			return err
		}

		baseExists, err := s.Git.HasLocalBranch(ctx, base)
		if err != nil {
			return err
		}
		if !baseExists {
			// The base itself has no local branch: fetch it from the
			// repo's remote so the layout link has both ends.
			if err := s.Git.FetchRefspec(ctx, h.OrgRepoRemote.Remote,
				fmt.Sprintf("%s:%s", base.Ref(), base.Ref())); err != nil {
				return err
			}
			s.invalidateReflogIndex()
		}

		if !s.Layout.IsManaged(base) {
			s.Layout.AddRoot(base)
		}
		if !s.Layout.IsManaged(head) {
			s.Layout.Attach(base, head, false)
		}
		annotation, err := s.prAnnotation(ctx, link, h.CurrentUser(ctx))
		if err != nil {
			return err
		}
		s.setPRAnnotation(head, annotation)
		s.Printf("%s checked out at local branch %s\n", link.DisplayText(), cliutil.Bold(head.String()))
	}
	return nil
}

// ensurePRBranchExists makes the PR's head available as a local branch,
// fetching the provider's hidden PR ref for cross-fork PRs.
func (s *State) ensurePRBranchExists(ctx context.Context, pr *hosting.PullRequest, head refs.LocalBranch) error {
	h := s.Hosting
	exists, err := s.Git.HasLocalBranch(ctx, head)
	if err != nil || exists {
		return err
	}
	remote := h.OrgRepoRemote.Remote

	sameRepo := true
	if pr.HeadRepoID != 0 {
		if repo, found, err := h.Client.RepoByID(ctx, pr.HeadRepoID); err != nil {
			return err
		} else if found && repo.Organization != h.OrgRepoRemote.Organization {
			sameRepo = false
			// A cross-fork PR: add a remote for the fork when none of
			// the existing remotes points at it.
			forkRemote := repo.Organization
			remotes, err := s.Git.Remotes(ctx)
			if err != nil {
				return err
			}
			found := false
			for _, existing := range remotes {
				if existing == forkRemote {
					found = true
					break
				}
			}
			if !found {
				s.Printf("Adding %s remote for %s/%s\n", cliutil.Bold(forkRemote), repo.Organization, repo.Repository)
				if err := s.Git.AddRemote(ctx, forkRemote, repo.GitURL); err != nil {
					return err
				}
			}
			remote = forkRemote
		}
	}

	if sameRepo {
		if err := s.Git.Fetch(ctx, remote); err != nil {
			return err
		}
		remoteBranch := refs.RemoteBranch(remote + "/" + head.String())
		if err := s.Git.CreateBranch(ctx, head, remoteBranch.Revision(), false); err != nil {
			return err
		}
	} else {
		// The fork may have restricted access; the provider's hidden
		// PR ref always works.
		refspec := fmt.Sprintf("%s:%s", h.Client.RefNameForPullRequest(pr.Number), head.Ref())
		if err := s.Git.FetchRefspec(ctx, h.OrgRepoRemote.Remote, refspec); err != nil {
			return err
		}
	}
	s.invalidateReflogIndex()
	return nil
}
