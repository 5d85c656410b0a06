// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// Layout A -> B -> C -> D: sliding out the chain B C reparents D onto A
// and rebases it onto A from its previous fork point.
func TestSlideOutChain(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("a work")
	c2 := f.commit("b work", c1)
	c3 := f.commit("c work", c2)
	c4 := f.commit("d work", c3)

	f.setBranch("A", c1)
	f.appendReflog("refs/heads/A", c1, "commit (initial): a work")
	f.setBranch("B", c2)
	f.appendReflog("refs/heads/B", c2, "commit: b work")
	f.setBranch("C", c3)
	f.appendReflog("refs/heads/C", c3, "commit: c work")
	f.setBranch("D", c4)
	f.appendReflog("refs/heads/D", c4, "commit: d work")
	f.currentBranch = "A"

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "A\n  B\n    C\n      D\n")

	err := state.SlideOut(ctx, []refs.LocalBranch{"B", "C"}, SlideOutOptions{NoInteractiveRebase: true})
	if err != nil {
		t.Fatalf("SlideOut: %v", err)
	}

	managed := state.Layout.Managed()
	if len(managed) != 2 || managed[0] != "A" || managed[1] != "D" {
		t.Errorf("managed = %v, want [A D]", managed)
	}
	if parent, _ := state.Layout.Parent("D"); parent != "A" {
		t.Errorf("parent of D = %v, want A", parent)
	}
	if len(f.rebases) != 1 || !strings.Contains(f.rebases[0], "D onto refs/heads/A") {
		t.Errorf("rebases = %v, want D rebased onto A", f.rebases)
	}

	saved, err := os.ReadFile(state.LayoutPath)
	if err != nil {
		t.Fatalf("layout not saved: %v", err)
	}
	if string(saved) != "A\n  D\n" {
		t.Errorf("saved layout = %q, want A/D", saved)
	}
}

func TestSlideOutRejectsNonChain(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("a")
	c2 := f.commit("b", c1)
	c3 := f.commit("c", c1)
	f.setBranch("A", c1)
	f.setBranch("B", c2)
	f.setBranch("C", c3)
	f.currentBranch = "A"

	state, _ := newTestState(t, f)
	// B and C are siblings, not a chain.
	state.Layout = mustParseLayout(t, "A\n  B\n  C\n")

	err := state.SlideOut(ctx, []refs.LocalBranch{"B", "C"}, SlideOutOptions{})
	if err == nil {
		t.Error("expected error for a non-chain slide-out")
	}
}

func TestSlideOutHonorsQualifier(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("a")
	c2 := f.commit("b", c1)
	f.setBranch("A", c1)
	f.setBranch("B", c2)
	f.currentBranch = "A"

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "A\n  B slide-out=no\n")

	err := state.SlideOut(ctx, []refs.LocalBranch{"B"}, SlideOutOptions{})
	if err == nil || !strings.Contains(err.Error(), "slide-out=no") {
		t.Errorf("err = %v, want a slide-out=no rejection", err)
	}
}

func TestAdvanceFastForwardsAndSlidesOut(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("feature work", c1)

	f.setBranch("master", c1)
	f.appendReflog("refs/heads/master", c1, "commit (initial): init")
	f.setBranch("feature", c2)
	f.appendReflog("refs/heads/feature", c2, "commit: feature work")
	f.currentBranch = "master"

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "master\n  feature\n")

	if err := state.Advance(ctx, nil); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if f.branches["master"] != c2 {
		t.Error("master should have been fast-forwarded to feature's tip")
	}
	if state.Layout.IsManaged("feature") {
		t.Error("feature should have been slid out after the advance")
	}
}

func TestSquashPreservesAuthorshipViaUpdateRef(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("first", c1)
	c3 := f.commit("second", c2)

	f.setBranch("master", c1)
	f.appendReflog("refs/heads/master", c1, "commit (initial): init")
	f.setBranch("feature", c3)
	f.appendReflog("refs/heads/feature", c2, "commit: first")
	f.appendReflog("refs/heads/feature", c3, "commit: second")
	f.currentBranch = "feature"

	state, out := newTestState(t, f)
	state.Layout = mustParseLayout(t, "master\n  feature\n")

	if err := state.Squash(ctx, ""); err != nil {
		t.Fatalf("Squash: %v", err)
	}

	newTip := f.branches["feature"]
	if newTip == c3 {
		t.Fatal("feature's tip should have moved")
	}
	parents := f.commitParents[newTip]
	if len(parents) != 1 || parents[0] != c1 {
		t.Errorf("squashed commit parents = %v, want just the fork point %s", parents, c1)
	}
	if f.trees[newTip] != f.trees[c3] {
		t.Error("squashed commit must carry the pre-squash tree")
	}
	// The reflog subject is a squash entry, not a reset: it has to
	// survive the filtered-reflog pruning.
	reflog := f.reflogs["refs/heads/feature"]
	if len(reflog) == 0 || !strings.HasPrefix(reflog[0].Subject, "squash: ") {
		t.Errorf("reflog = %v, want a squash: subject on top", reflog)
	}
	if !strings.Contains(out.String(), "Squashed 2 commits") {
		t.Errorf("output %q lacks the squash summary", out.String())
	}
}

func TestSquashSingleCommitIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("only", c1)
	f.setBranch("master", c1)
	f.appendReflog("refs/heads/master", c1, "commit (initial): init")
	f.setBranch("feature", c2)
	f.appendReflog("refs/heads/feature", c2, "commit: only")
	f.currentBranch = "feature"

	state, out := newTestState(t, f)
	state.Layout = mustParseLayout(t, "master\n  feature\n")

	if err := state.Squash(ctx, ""); err != nil {
		t.Fatalf("Squash: %v", err)
	}
	if f.branches["feature"] != c2 {
		t.Error("a single-commit squash must not move the branch")
	}
	if !strings.Contains(out.String(), "Exactly one commit") {
		t.Errorf("output %q lacks the single-commit notice", out.String())
	}
}

func TestAddOntoExplicitParent(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("new work", c1)
	f.setBranch("master", c1)
	f.setBranch("new", c2)
	f.currentBranch = "new"

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "master\n")

	if err := state.Add(ctx, "new", AddOptions{Onto: "master"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if parent, _ := state.Layout.Parent("new"); parent != "master" {
		t.Errorf("parent = %v, want master", parent)
	}

	saved, _ := os.ReadFile(state.LayoutPath)
	if string(saved) != "master\n  new\n" {
		t.Errorf("saved layout = %q", saved)
	}
}

func TestDeleteUnmanagedSkipsCurrent(t *testing.T) {
	ctx := context.Background()
	f := newFakeGit()
	c1 := f.commit("init")
	c2 := f.commit("stray work", c1)
	f.setBranch("master", c1)
	f.setBranch("stray", c2)
	f.appendReflog("refs/heads/stray", c2, "commit: stray work")
	f.currentBranch = "master"

	state, _ := newTestState(t, f)
	state.Layout = mustParseLayout(t, "master\n")

	if err := state.DeleteUnmanaged(ctx, SquashMergeDetectionNone); err != nil {
		t.Fatalf("DeleteUnmanaged: %v", err)
	}
	if len(f.deleted) != 1 || f.deleted[0] != "stray" {
		t.Errorf("deleted = %v, want [stray]", f.deleted)
	}
	if _, ok := f.branches["master"]; !ok {
		t.Error("master must survive")
	}
}
