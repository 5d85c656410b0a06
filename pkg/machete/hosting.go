// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/hosting"
	"github.com/gizzahub/gzh-cli-machete/pkg/layout"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// ClientFactory builds a provider client once the repository and token
// have been resolved; injected by the CLI so the engine stays free of
// provider-specific dependencies.
type ClientFactory func(ctx context.Context, domain, organization, repository, token string) (hosting.Client, error)

// HostingSession is the per-run state of the code-hosting integration.
type HostingSession struct {
	Spec          hosting.Spec
	Client        hosting.Client
	Domain        string
	OrgRepoRemote hosting.OrgRepoAndRemote

	allOpenPRs       []*hosting.PullRequest
	allOpenPRsLoaded bool
	currentUser      string
	currentUserKnown bool
}

// InitHosting resolves the provider repository from config and remotes,
// discovers a token, and opens the session. branchForTracking breaks
// remote ambiguity (pass "" when there is no obviously relevant branch).
func (s *State) InitHosting(ctx context.Context, spec hosting.Spec, factory ClientFactory,
	branchForTracking refs.LocalBranch) (*HostingSession, error) {
	if s.Hosting != nil {
		return s.Hosting, nil
	}
	domain, err := hosting.ResolveDomain(ctx, s.Git, spec)
	if err != nil {
		return nil, err
	}
	orgRepoRemote, err := hosting.ResolveOrgRepoAndRemote(ctx, s.Git, spec, domain, branchForTracking)
	if err != nil {
		return nil, err
	}
	token, _ := hosting.TokenForDomain(ctx, spec, domain)
	client, err := factory(ctx, domain, orgRepoRemote.Organization, orgRepoRemote.Repository, token.Value)
	if err != nil {
		return nil, err
	}
	s.Hosting = &HostingSession{
		Spec:          spec,
		Client:        client,
		Domain:        domain,
		OrgRepoRemote: orgRepoRemote,
	}
	return s.Hosting, nil
}

// AllOpenPRs fetches (once) the full list of open PRs in the repo.
func (h *HostingSession) AllOpenPRs(ctx context.Context) ([]*hosting.PullRequest, error) {
	if !h.allOpenPRsLoaded {
		prs, err := h.Client.OpenPullRequests(ctx)
		if err != nil {
			return nil, err
		}
		h.allOpenPRs = prs
		h.allOpenPRsLoaded = true
	}
	return h.allOpenPRs, nil
}

// CurrentUser fetches (once) the authenticated user's login; empty for
// anonymous access.
func (h *HostingSession) CurrentUser(ctx context.Context) string {
	if !h.currentUserKnown {
		login, err := h.Client.CurrentUserLogin(ctx)
		if err == nil {
			h.currentUser = login
		}
		h.currentUserKnown = true
	}
	return h.currentUser
}

// SolePRForHead finds the unique open PR with the given head branch.
// Multiple PRs sharing a head fail loudly.
func (h *HostingSession) SolePRForHead(ctx context.Context, head refs.LocalBranch,
	ignoreIfMissing bool) (*hosting.PullRequest, error) {
	prs, err := h.Client.OpenPullRequestsByHead(ctx, head.String())
	if err != nil {
		return nil, err
	}
	orgAndRepo := h.Client.OrgAndRepo()
	if len(prs) == 0 {
		if ignoreIfMissing {
			return nil, nil
		}
		return nil, fmt.Errorf("no %ss in %s have %s as its %s branch",
			h.Spec.PRShortName, orgAndRepo, cliutil.Bold(head.String()), h.Spec.HeadBranchName)
	}
	if len(prs) > 1 {
		numbers := make([]string, len(prs))
		for i, pr := range prs {
			numbers[i] = pr.ShortDisplayText()
		}
		return nil, fmt.Errorf("multiple %ss in %s have %s as its %s branch: %s",
			h.Spec.PRShortName, orgAndRepo, cliutil.Bold(head.String()), h.Spec.HeadBranchName,
			strings.Join(numbers, ", "))
	}
	return prs[0], nil
}

// introStyleFromConfig reads the provider's intro style key,
// defaulting to up-only.
func (s *State) introStyleFromConfig(ctx context.Context) (hosting.IntroStyle, error) {
	key := s.Hosting.Spec.ConfigKeys.PRDescriptionIntroStyle
	value, ok, err := s.Git.ConfigValue(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return hosting.IntroStyleUpOnly, nil
	}
	style, err := hosting.ParseIntroStyle(value)
	if err != nil {
		return "", fmt.Errorf("%w (from `%s` git config key)", err, key)
	}
	return style, nil
}

// UpdatedPRDescription regenerates the machete-managed intro block of
// the PR's description.
func (s *State) UpdatedPRDescription(ctx context.Context, pr *hosting.PullRequest) (string, error) {
	style, err := s.introStyleFromConfig(ctx)
	if err != nil {
		return "", err
	}
	var allPRs []*hosting.PullRequest
	if style != hosting.IntroStyleNone {
		allPRs, err = s.Hosting.AllOpenPRs(ctx)
		if err != nil {
			return "", err
		}
	}
	intro := hosting.GenerateIntro(s.Hosting.Spec, style, pr, allPRs, time.Now().Format("2006-01-02"))
	return hosting.UpdatedDescription(pr.Description, intro), nil
}

// prAnnotation renders the annotation text recorded for a branch with
// an open PR: the PR number, optionally its URL, and the author when
// different from the current user.
func (s *State) prAnnotation(ctx context.Context, pr *hosting.PullRequest, currentUser string) (string, error) {
	annotateWithURLs, err := s.Git.BoolConfig(ctx, s.Hosting.Spec.ConfigKeys.AnnotateWithURLs, false)
	if err != nil {
		return "", err
	}
	text := pr.DisplayText()
	if annotateWithURLs {
		text += " " + pr.HTMLURL
	}
	if pr.User != "" && pr.User != currentUser {
		text += " (" + pr.User + ")"
	}
	return text, nil
}

// setPRAnnotation replaces a branch's annotation text, preserving its
// qualifiers.
func (s *State) setPRAnnotation(branch refs.LocalBranch, text string) {
	qualifiers := s.Layout.Qualifiers(branch)
	s.Layout.SetAnnotation(branch, layout.Annotation{Text: text, Qualifiers: qualifiers})
}

// updateRelatedPRDescriptions refreshes the intro blocks of PRs that
// reference the given PR through their chains/trees.
func (s *State) updateRelatedPRDescriptions(ctx context.Context, related ...*hosting.PullRequest) error {
	allPRs, err := s.Hosting.AllOpenPRs(ctx)
	if err != nil {
		return err
	}
	seen := map[int]bool{}
	for _, anchor := range related {
		if anchor != nil {
			seen[anchor.Number] = true
		}
	}
	for _, pr := range allPRs {
		if seen[pr.Number] {
			continue
		}
		applicable := false
		for _, anchor := range related {
			if anchor != nil && (pr.Base == anchor.Head || anchor.Base == pr.Head || pr.Base == anchor.Base) {
				applicable = true
				break
			}
		}
		if !applicable {
			continue
		}
		newDescription, err := s.UpdatedPRDescription(ctx, pr)
		if err != nil {
			return err
		}
		if strings.TrimRight(pr.Description, "\n") != strings.TrimRight(newDescription, "\n") {
			if err := s.Hosting.Client.SetDescription(ctx, pr.Number, newDescription); err != nil {
				return err
			}
			pr.Description = newDescription
			s.Printf("Description of %s (%s -> %s) has been updated\n",
				pr.DisplayText(), cliutil.Bold(pr.Head), cliutil.Bold(pr.Base))
		}
	}
	return nil
}
