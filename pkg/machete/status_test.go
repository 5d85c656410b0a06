// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"strings"
	"testing"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

func TestEdgeStatusMergedToParent(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("feature work", c1)

	// feature was fast-forward merged into master: both point at c2.
	f.setBranch("master", c2)
	f.setBranch("feature", c2)
	f.currentBranch = "master"
	f.appendReflog("refs/heads/feature", c2, "commit: feature work")

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "master\n  feature\n")

	status, err := state.EdgeStatusFor(ctx, "feature", SquashMergeDetectionSimple)
	if err != nil {
		t.Fatalf("EdgeStatusFor: %v", err)
	}
	if status != EdgeMergedToParent {
		t.Errorf("status = %v, want merged to parent", status)
	}
}

func TestEdgeStatusFreshBranchIsNotMerged(t *testing.T) {
	// A branch that points at its parent's tip but has an empty
	// filtered reflog was just created, not merged.
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	f.setBranch("master", c1)
	f.setBranch("fresh", c1)
	f.currentBranch = "fresh"
	f.appendReflog("refs/heads/fresh", c1, "branch: Created from master")
	f.appendReflog("refs/heads/master", c1, "commit (initial): init")

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "master\n  fresh\n")

	status, err := state.EdgeStatusFor(ctx, "fresh", SquashMergeDetectionSimple)
	if err != nil {
		t.Fatalf("EdgeStatusFor: %v", err)
	}
	if status == EdgeMergedToParent {
		t.Error("a freshly created branch must not be considered merged")
	}
	if status != EdgeInSync {
		t.Errorf("status = %v, want in sync", status)
	}
}

func TestEdgeStatusSquashMergeDetection(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	featureTip := f.commit("feature work", c1)
	squashed := f.commit("feature work (squashed)", c1)
	// The squashed commit on master carries the same tree as feature.
	f.trees[squashed] = f.trees[featureTip]

	f.setBranch("master", squashed)
	f.setBranch("feature", featureTip)
	f.currentBranch = "master"
	f.appendReflog("refs/heads/feature", featureTip, "commit: feature work")

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "master\n  feature\n")

	status, err := state.EdgeStatusFor(ctx, "feature", SquashMergeDetectionSimple)
	if err != nil {
		t.Fatalf("EdgeStatusFor: %v", err)
	}
	if status != EdgeMergedToParent {
		t.Errorf("status = %v, want merged to parent under simple detection", status)
	}

	status, err = state.EdgeStatusFor(ctx, "feature", SquashMergeDetectionNone)
	if err != nil {
		t.Fatalf("EdgeStatusFor: %v", err)
	}
	if status != EdgeOutOfSync {
		t.Errorf("status = %v, want out of sync under detection mode none", status)
	}
}

func TestEdgeStatusOutOfSync(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	uTip := f.commit("u advanced", c1)
	xTip := f.commit("x work", c1)

	f.setBranch("u", uTip)
	f.setBranch("x", xTip)
	f.currentBranch = "x"
	f.appendReflog("refs/heads/x", xTip, "commit: x work")

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "u\n  x\n")

	status, err := state.EdgeStatusFor(ctx, "x", SquashMergeDetectionSimple)
	if err != nil {
		t.Fatalf("EdgeStatusFor: %v", err)
	}
	if status != EdgeOutOfSync {
		t.Errorf("status = %v, want out of sync", status)
	}
}

func TestEdgeStatusInSyncButForkPointOff(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("u work", c1)
	c3 := f.commit("other work", c2)
	c4 := f.commit("x work", c3)

	f.setBranch("u", c2)
	f.setBranch("other", c3)
	f.setBranch("x", c4)
	f.currentBranch = "x"
	// x's fork point lands on c3 (in other's filtered reflog), which is
	// a descendant of u's tip c2: the edge is in sync but the fork
	// point is off.
	f.appendReflog("refs/heads/other", c3, "commit: other work")
	f.appendReflog("refs/heads/x", c4, "commit: x work")

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "u\n  x\nother\n")

	status, err := state.EdgeStatusFor(ctx, "x", SquashMergeDetectionSimple)
	if err != nil {
		t.Fatalf("EdgeStatusFor: %v", err)
	}
	if status != EdgeInSyncButForkPointOff {
		t.Errorf("status = %v, want in sync but fork point off", status)
	}

	// The spec invariant: this status implies the parent is an
	// ancestor of the branch.
	isAncestor, _ := f.IsAncestorOrEqual(ctx, refs.LocalBranch("u").Revision(), refs.LocalBranch("x").Revision())
	if !isAncestor {
		t.Error("yellow edge must imply the parent is an ancestor")
	}

	// An override makes the edge green.
	f.config[overrideForkPointToKey("x")] = c3.String()
	status, err = state.EdgeStatusFor(ctx, "x", SquashMergeDetectionSimple)
	if err != nil {
		t.Fatalf("EdgeStatusFor: %v", err)
	}
	if status != EdgeInSync {
		t.Errorf("status = %v, want in sync once the fork point is overridden", status)
	}
}

func TestRemoteSyncStatuses(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("more", c1)
	c3 := f.commit("local only", c2)
	c4 := f.commit("remote only", c2)

	f.remotes = []string{"origin"}

	f.setBranch("in-sync", c2)
	f.setRemoteBranch("origin/in-sync", c2)
	f.counterparts["in-sync"] = "origin/in-sync"

	f.setBranch("ahead", c3)
	f.setRemoteBranch("origin/ahead", c2)
	f.counterparts["ahead"] = "origin/ahead"

	f.setBranch("behind", c2)
	f.setRemoteBranch("origin/behind", c4)
	f.counterparts["behind"] = "origin/behind"

	f.setBranch("diverged", c3)
	f.setRemoteBranch("origin/diverged", c4)
	f.counterparts["diverged"] = "origin/diverged"

	f.setBranch("untracked", c2)

	state, _ := newTestState(t, f)

	tests := []struct {
		branch refs.LocalBranch
		want   RemoteSyncStatus
	}{
		{"in-sync", RemoteInSync},
		{"ahead", RemoteAhead},
		{"behind", RemoteBehind},
		{"untracked", RemoteUntracked},
	}
	for _, tt := range tests {
		status, _, err := state.CombinedRemoteSyncStatus(ctx, tt.branch)
		if err != nil {
			t.Fatalf("CombinedRemoteSyncStatus(%s): %v", tt.branch, err)
		}
		if status != tt.want {
			t.Errorf("status(%s) = %v, want %v", tt.branch, status, tt.want)
		}
	}

	// diverged: local tip c3 is older than remote tip c4 by committer
	// timestamp (fake timestamps grow with the sequence).
	status, _, err := state.CombinedRemoteSyncStatus(ctx, "diverged")
	if err != nil {
		t.Fatal(err)
	}
	if status != RemoteDivergedAndOlder {
		t.Errorf("status(diverged) = %v, want diverged and older", status)
	}

	// With no remotes at all the status degrades to NO_REMOTES.
	f.remotes = nil
	status, _, err = state.CombinedRemoteSyncStatus(ctx, "in-sync")
	if err != nil {
		t.Fatal(err)
	}
	if status != RemoteNoRemotes {
		t.Errorf("status = %v, want no remotes", status)
	}
}

func TestStatusRendersTree(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("develop work", c1)
	c3 := f.commit("feature work", c2)

	f.setBranch("develop", c2)
	f.setBranch("feature", c3)
	f.currentBranch = "develop"
	f.appendReflog("refs/heads/develop", c2, "commit: develop work")
	f.appendReflog("refs/heads/feature", c3, "commit: feature work")

	state, out := newTestState(t, f)
	state.Layout = mustParseLayout(t, "develop\n  feature PR #7\n")

	if err := state.Status(ctx, StatusOptions{SquashMergeDetection: SquashMergeDetectionSimple}); err != nil {
		t.Fatalf("Status: %v", err)
	}
	rendered := out.String()
	for _, want := range []string{"develop", "feature", "PR #7"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("status output %q does not contain %q", rendered, want)
		}
	}
}
