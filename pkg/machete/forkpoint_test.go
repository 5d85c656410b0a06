// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"testing"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// repo with develop -> feature, where feature was branched off
// develop's tip.
func featureOffDevelop(t *testing.T) (*fakeGit, *State) {
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("develop work", c1)
	c3 := f.commit("feature work", c2)

	f.setBranch("develop", c2)
	f.setBranch("feature", c3)
	f.currentBranch = "feature"

	f.appendReflog("refs/heads/develop", c1, "branch: Created from master")
	f.appendReflog("refs/heads/develop", c2, "commit: develop work")
	f.appendReflog("refs/heads/feature", c2, "branch: Created from develop")
	f.appendReflog("refs/heads/feature", c3, "commit: feature work")

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "develop\n  feature\n")
	return f, state
}

func TestForkPointFromReflogMatch(t *testing.T) {
	ctx := context.Background()
	f, state := featureOffDevelop(t)

	forkPoint, containing, err := state.ForkPoint(ctx, "feature", true)
	if err != nil {
		t.Fatalf("ForkPoint: %v", err)
	}
	if forkPoint != f.branches["develop"] {
		t.Errorf("fork point = %s, want tip of develop %s", forkPoint, f.branches["develop"])
	}
	if len(containing) != 1 || containing[0].LocalOrRemote != "develop" {
		t.Errorf("containing = %+v, want develop", containing)
	}
}

func TestForkPointCreationEntriesExcluded(t *testing.T) {
	// A branch whose reflog only carries the creation entry must not
	// pollute the per-commit index: the hash of the creation entry is
	// excluded along with the entry itself.
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("x work", c1)

	f.setBranch("master", c1)
	f.setBranch("x", c2)
	f.currentBranch = "x"

	f.appendReflog("refs/heads/x", c1, "branch: Created from master")
	f.appendReflog("refs/heads/x", c1, "reset: moving to master")
	f.appendReflog("refs/heads/x", c2, "commit: x work")

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "master\n  x\n")

	// master has an empty reflog, x's creation/reset entries are all
	// filtered; but master is an ancestor of x, so the fallback kicks
	// in and yields master's tip.
	forkPoint, _, err := state.ForkPoint(ctx, "x", true)
	if err != nil {
		t.Fatalf("ForkPoint: %v", err)
	}
	if forkPoint != c1 {
		t.Errorf("fork point = %s, want %s (tip of master)", forkPoint, c1)
	}
}

func TestForkPointOverride(t *testing.T) {
	ctx := context.Background()
	f, state := featureOffDevelop(t)

	// Override to a commit inside feature's own history that is NOT an
	// ancestor of develop: since develop IS an ancestor of feature, the
	// override is shadowed by the parent.
	tipOfFeature := f.branches["feature"]
	f.config[overrideForkPointToKey("feature")] = tipOfFeature.String()

	forkPoint, _, err := state.ForkPoint(ctx, "feature", true)
	if err != nil {
		t.Fatalf("ForkPoint: %v", err)
	}
	if forkPoint != f.branches["develop"] {
		t.Errorf("fork point = %s, want tip of develop (stale override must be shadowed)", forkPoint)
	}

	// use-overrides=false ignores the override entirely.
	forkPoint, _, err = state.ForkPoint(ctx, "feature", false)
	if err != nil {
		t.Fatalf("ForkPoint: %v", err)
	}
	if forkPoint != f.branches["develop"] {
		t.Errorf("fork point = %s, want tip of develop", forkPoint)
	}
}

func TestForkPointOverrideStaleness(t *testing.T) {
	// Branch x with parent u; override x -> H1 while u is an ancestor
	// of x and H1 is not an ancestor of u; fork_point(x) returns tip(u).
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("u work", c1)
	h1 := f.commit("x first", c2)
	c4 := f.commit("x second", h1)

	f.setBranch("u", c2)
	f.setBranch("x", c4)
	f.currentBranch = "x"
	f.appendReflog("refs/heads/x", h1, "commit: x first")
	f.appendReflog("refs/heads/x", c4, "commit: x second")

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "u\n  x\n")
	f.config[overrideForkPointToKey("x")] = h1.String()

	forkPoint, _, err := state.ForkPoint(ctx, "x", true)
	if err != nil {
		t.Fatalf("ForkPoint: %v", err)
	}
	if forkPoint != c2 {
		t.Errorf("fork point = %s, want tip(u) %s: the override is shadowed by the parent", forkPoint, c2)
	}
}

func TestForkPointOverrideAppliesWithoutParentConflict(t *testing.T) {
	// Branch out of sync with its parent: the override target (inside
	// the branch's history, unrelated to the parent) applies as-is.
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	uTip := f.commit("u work", c1)
	x1 := f.commit("x first", c1)
	x2 := f.commit("x second", x1)

	f.setBranch("u", uTip)
	f.setBranch("x", x2)
	f.currentBranch = "x"

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "u\n  x\n")
	f.config[overrideForkPointToKey("x")] = x1.String()

	forkPoint, _, err := state.ForkPoint(ctx, "x", true)
	if err != nil {
		t.Fatalf("ForkPoint: %v", err)
	}
	if forkPoint != x1 {
		t.Errorf("fork point = %s, want override target %s", forkPoint, x1)
	}
}

func TestSetAndUnsetForkPointOverride(t *testing.T) {
	ctx := context.Background()
	f, state := featureOffDevelop(t)
	developTip := f.branches["develop"]

	if err := state.SetForkPointOverride(ctx, "feature", developTip.Revision()); err != nil {
		t.Fatalf("SetForkPointOverride: %v", err)
	}
	if f.config[overrideForkPointToKey("feature")] != developTip.String() {
		t.Error("override config key not written")
	}
	if f.config[overrideForkPointWhileDescendantOfKey("feature")] != developTip.String() {
		t.Error("deprecated whileDescendantOf key not written alongside")
	}

	// Overriding the fork point to the computed fork point leaves the
	// fork point invariant.
	forkPoint, _, err := state.ForkPoint(ctx, "feature", true)
	if err != nil {
		t.Fatalf("ForkPoint: %v", err)
	}
	if forkPoint != developTip {
		t.Errorf("fork point after idempotent override = %s, want %s", forkPoint, developTip)
	}

	if err := state.UnsetForkPointOverride(ctx, "feature"); err != nil {
		t.Fatalf("UnsetForkPointOverride: %v", err)
	}
	if _, ok := f.config[overrideForkPointToKey("feature")]; ok {
		t.Error("override config key not removed")
	}

	forkPoint, _, err = state.ForkPoint(ctx, "feature", true)
	if err != nil {
		t.Fatalf("ForkPoint after unset: %v", err)
	}
	if forkPoint != developTip {
		t.Errorf("fork point after unset = %s, want the original computed one %s", forkPoint, developTip)
	}
}

func TestSetForkPointOverrideRejectsNonAncestor(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	other := f.commit("unrelated", c1)
	c3 := f.commit("x", c1)
	f.setBranch("u", other)
	f.setBranch("x", c3)
	f.currentBranch = "x"

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "u\n  x\n")

	if err := state.SetForkPointOverride(ctx, "x", other.Revision()); err == nil {
		t.Error("expected error for override target that is not an ancestor of the branch")
	}
}

func TestForkPointNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("lone")
	f.setBranch("lone", c1)
	f.currentBranch = "lone"

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "lone\n")

	_, _, err := state.ForkPoint(ctx, "lone", true)
	if err == nil {
		t.Fatal("expected ForkPointNotFound for a root with no reflog evidence")
	}
	if _, ok := err.(*ForkPointNotFoundError); !ok {
		t.Errorf("error type = %T, want *ForkPointNotFoundError", err)
	}
}

func TestInferUpstream(t *testing.T) {
	ctx := context.Background()
	_, state := featureOffDevelop(t)

	upstream, ok, err := state.InferUpstream(ctx, "feature", nil)
	if err != nil {
		t.Fatalf("InferUpstream: %v", err)
	}
	if !ok || upstream != "develop" {
		t.Errorf("inferred upstream = %v (found=%v), want develop", upstream, ok)
	}

	// With a condition rejecting develop, nothing is inferred.
	_, ok, err = state.InferUpstream(ctx, "feature", func(candidate refs.LocalBranch) bool {
		return candidate != "develop"
	})
	if err != nil {
		t.Fatalf("InferUpstream: %v", err)
	}
	if ok {
		t.Error("expected no upstream when the only candidate is rejected")
	}
}
