// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package hosting

import (
	"strings"
	"testing"
)

func chainPRs() (*PullRequest, []*PullRequest) {
	prA := &PullRequest{Number: 14, DisplayPrefix: "PR #", Base: "master", Head: "a", Title: "A"}
	prB := &PullRequest{Number: 15, DisplayPrefix: "PR #", Base: "a", Head: "b", Title: "B"}
	return prB, []*PullRequest{prA, prB}
}

func TestGenerateIntroUpOnly(t *testing.T) {
	pr, all := chainPRs()
	intro := GenerateIntro(GitHubSpec, IntroStyleUpOnly, pr, all, "2025-08-01")

	if !strings.HasPrefix(intro, StartGeneratedComment) {
		t.Errorf("intro %q must start with the delimiter", intro)
	}
	if !strings.Contains(intro, "# Based on PR #14") {
		t.Errorf("intro %q lacks the Based on line", intro)
	}
	idxA := strings.Index(intro, "* PR #14")
	idxB := strings.Index(intro, "* **PR #15 (THIS ONE)**")
	if idxA < 0 || idxB < 0 || idxA > idxB {
		t.Errorf("intro %q should list PR #14 above PR #15 (THIS ONE)", intro)
	}
	if !strings.Contains(intro, "`a` ← `b`") {
		t.Errorf("intro %q lacks the branch line", intro)
	}
	if !strings.HasSuffix(intro, EndGeneratedComment+"\n") {
		t.Errorf("intro %q must end with the delimiter", intro)
	}
}

func TestGenerateIntroNoChain(t *testing.T) {
	pr := &PullRequest{Number: 1, DisplayPrefix: "PR #", Base: "master", Head: "a", Title: "A"}
	if intro := GenerateIntro(GitHubSpec, IntroStyleUpOnly, pr, []*PullRequest{pr}, "2025-08-01"); intro != "" {
		t.Errorf("intro for a chainless PR = %q, want empty", intro)
	}
	if intro := GenerateIntro(GitHubSpec, IntroStyleNone, pr, []*PullRequest{pr}, "2025-08-01"); intro != "" {
		t.Errorf("intro in style none = %q, want empty", intro)
	}
}

func TestGenerateIntroFullIncludesDownstreams(t *testing.T) {
	prA := &PullRequest{Number: 1, DisplayPrefix: "PR #", Base: "master", Head: "a", Title: "A"}
	prB := &PullRequest{Number: 2, DisplayPrefix: "PR #", Base: "a", Head: "b", Title: "B"}
	prC := &PullRequest{Number: 3, DisplayPrefix: "PR #", Base: "a", Head: "c", Title: "C"}
	all := []*PullRequest{prA, prB, prC}

	intro := GenerateIntro(GitHubSpec, IntroStyleFull, prA, all, "2025-08-01")
	if !strings.Contains(intro, "Tree of downstream PRs") {
		t.Errorf("intro %q lacks the downstream tree header", intro)
	}
	for _, want := range []string{"PR #1 (THIS ONE)", "PR #2", "PR #3"} {
		if !strings.Contains(intro, want) {
			t.Errorf("intro %q lacks %q", intro, want)
		}
	}
}

func TestGenerateIntroGitLabVocabulary(t *testing.T) {
	mrA := &PullRequest{Number: 4, DisplayPrefix: "MR !", Base: "master", Head: "a", Title: "A"}
	mrB := &PullRequest{Number: 5, DisplayPrefix: "MR !", Base: "a", Head: "b", Title: "B"}
	intro := GenerateIntro(GitLabSpec, IntroStyleUpOnly, mrB, []*PullRequest{mrA, mrB}, "2025-08-01")

	if !strings.Contains(intro, "Chain of upstream MRs") {
		t.Errorf("intro %q lacks the MR header", intro)
	}
	// GitLab style spells out titles and inserts <br> before branches.
	if !strings.Contains(intro, "_B_ (THIS ONE)") {
		t.Errorf("intro %q lacks the explicit title", intro)
	}
	if !strings.Contains(intro, " <br>") {
		t.Errorf("intro %q lacks the <br> before branches", intro)
	}
}

func TestUpdatedDescriptionPrepends(t *testing.T) {
	got := UpdatedDescription("Existing text.\n", StartGeneratedComment+"\nchain\n"+EndGeneratedComment+"\n")
	want := StartGeneratedComment + "\nchain\n" + EndGeneratedComment + "\n\nExisting text.\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUpdatedDescriptionReplacesInPlace(t *testing.T) {
	original := "Above.\n" +
		StartGeneratedComment + "\nold chain\n" + EndGeneratedComment + "\n" +
		"Below.\n"
	got := UpdatedDescription(original, StartGeneratedComment+"\nnew chain\n"+EndGeneratedComment+"\n")
	if !strings.Contains(got, "new chain") || strings.Contains(got, "old chain") {
		t.Errorf("got %q, want the block replaced in place", got)
	}
	if !strings.Contains(got, "Above.") || !strings.Contains(got, "Below.") {
		t.Errorf("got %q, text outside the block must be preserved", got)
	}
}

func TestUpdatedDescriptionStripsLegacyPrefix(t *testing.T) {
	got := UpdatedDescription("# Based on PR #3\n\nBody.\n",
		StartGeneratedComment+"\nchain\n"+EndGeneratedComment+"\n")
	if strings.Contains(strings.TrimPrefix(got, StartGeneratedComment), "# Based on PR #3") &&
		!strings.Contains(got, "chain") {
		t.Errorf("got %q, legacy prefix should be stripped exactly once", got)
	}
	if !strings.Contains(got, "Body.") {
		t.Errorf("got %q, body must be preserved", got)
	}
}

func TestUpdatedDescriptionRemovesBlockWhenIntroEmpty(t *testing.T) {
	original := StartGeneratedComment + "\nchain\n" + EndGeneratedComment + "\n\nBody.\n"
	got := UpdatedDescription(original, "")
	if strings.Contains(got, StartGeneratedComment) {
		t.Errorf("got %q, the block should be gone", got)
	}
	if !strings.Contains(got, "Body.") {
		t.Errorf("got %q, body must be preserved", got)
	}
}
