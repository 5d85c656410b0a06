// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package hosting

import (
	"context"
	"testing"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

type fakeGitInfo struct {
	config        map[string]string
	remotes       []string
	urls          map[string]string
	branchRemotes map[refs.LocalBranch]string
}

func (f *fakeGitInfo) ConfigValue(ctx context.Context, key string) (string, bool, error) {
	value, ok := f.config[key]
	return value, ok, nil
}

func (f *fakeGitInfo) Remotes(ctx context.Context) ([]string, error) {
	return f.remotes, nil
}

func (f *fakeGitInfo) RemoteURL(ctx context.Context, remote string) (string, error) {
	return f.urls[remote], nil
}

func (f *fakeGitInfo) CombinedRemote(ctx context.Context, branch refs.LocalBranch) (string, bool, error) {
	remote, ok := f.branchRemotes[branch]
	return remote, ok, nil
}

func TestResolveDomain(t *testing.T) {
	g := &fakeGitInfo{config: map[string]string{}}
	domain, err := ResolveDomain(context.Background(), g, GitHubSpec)
	if err != nil {
		t.Fatal(err)
	}
	if domain != "github.com" {
		t.Errorf("domain = %q, want the default", domain)
	}

	g.config["machete.github.domain"] = "git.example.org"
	domain, err = ResolveDomain(context.Background(), g, GitHubSpec)
	if err != nil {
		t.Fatal(err)
	}
	if domain != "git.example.org" {
		t.Errorf("domain = %q, want the configured one", domain)
	}
}

func TestResolveOrgRepoSoleMatchingRemote(t *testing.T) {
	g := &fakeGitInfo{
		config:  map[string]string{},
		remotes: []string{"origin"},
		urls:    map[string]string{"origin": "git@github.com:acme/widget.git"},
	}
	got, err := ResolveOrgRepoAndRemote(context.Background(), g, GitHubSpec, "github.com", "")
	if err != nil {
		t.Fatal(err)
	}
	want := OrgRepoAndRemote{Organization: "acme", Repository: "widget", Remote: "origin"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestResolveOrgRepoExplicitConfig(t *testing.T) {
	g := &fakeGitInfo{
		config: map[string]string{
			"machete.github.remote":       "upstream",
			"machete.github.organization": "explicit-org",
			"machete.github.repository":   "explicit-repo",
		},
		remotes: []string{"origin", "upstream"},
		urls: map[string]string{
			"origin":   "git@github.com:fork/widget.git",
			"upstream": "git@github.com:acme/widget.git",
		},
	}
	got, err := ResolveOrgRepoAndRemote(context.Background(), g, GitHubSpec, "github.com", "")
	if err != nil {
		t.Fatal(err)
	}
	want := OrgRepoAndRemote{Organization: "explicit-org", Repository: "explicit-repo", Remote: "upstream"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestResolveOrgRepoOrgWithoutRepoFails(t *testing.T) {
	g := &fakeGitInfo{
		config:  map[string]string{"machete.github.organization": "acme"},
		remotes: []string{"origin"},
		urls:    map[string]string{"origin": "git@github.com:acme/widget.git"},
	}
	if _, err := ResolveOrgRepoAndRemote(context.Background(), g, GitHubSpec, "github.com", ""); err == nil {
		t.Error("expected error when only the organization key is set")
	}
}

func TestResolveOrgRepoAmbiguityFallsBackToTrackingThenOrigin(t *testing.T) {
	g := &fakeGitInfo{
		config:  map[string]string{},
		remotes: []string{"origin", "upstream"},
		urls: map[string]string{
			"origin":   "git@github.com:fork/widget.git",
			"upstream": "git@github.com:acme/widget.git",
		},
		branchRemotes: map[refs.LocalBranch]string{"feature": "upstream"},
	}

	// The tracking data of the given branch wins.
	got, err := ResolveOrgRepoAndRemote(context.Background(), g, GitHubSpec, "github.com", "feature")
	if err != nil {
		t.Fatal(err)
	}
	if got.Remote != "upstream" || got.Organization != "acme" {
		t.Errorf("got %+v, want the remote of the branch's counterpart", got)
	}

	// Without a branch, origin is the last resort.
	got, err = ResolveOrgRepoAndRemote(context.Background(), g, GitHubSpec, "github.com", "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Remote != "origin" || got.Organization != "fork" {
		t.Errorf("got %+v, want origin as the fallback", got)
	}
}

func TestResolveOrgRepoNoMatchingRemote(t *testing.T) {
	g := &fakeGitInfo{
		config:  map[string]string{},
		remotes: []string{"origin"},
		urls:    map[string]string{"origin": "git@example.org:acme/widget.git"},
	}
	if _, err := ResolveOrgRepoAndRemote(context.Background(), g, GitHubSpec, "github.com", ""); err == nil {
		t.Error("expected a user-actionable error when no remote matches the domain")
	}
}

func TestResolveOrgRepoNoRemotes(t *testing.T) {
	g := &fakeGitInfo{config: map[string]string{}}
	if _, err := ResolveOrgRepoAndRemote(context.Background(), g, GitHubSpec, "github.com", ""); err == nil {
		t.Error("expected error when the repository has no remotes")
	}
}
