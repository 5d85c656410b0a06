// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/layout"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// discoverDefaultFreshBranchCount is roughly how many non-root branches
// discovery keeps when no --checked-out-since threshold is given.
const discoverDefaultFreshBranchCount = 10

// DiscoverOptions configure Discover.
type DiscoverOptions struct {
	// Roots are the explicit trunk branches; when empty, the subset of
	// {master|main, develop} present locally is used.
	Roots []refs.LocalBranch

	// CheckedOutSince drops branches last checked out before the given
	// git timespec.
	CheckedOutSince string

	// ListCommits includes the commit listing in the presented tree.
	ListCommits bool
}

// Discover synthesizes a layout from the repository state: roots are
// fixed, stale branches are dropped, upstreams are inferred from the
// reflog index (avoiding cycles), and childless merged branches are
// removed. The result is shown and, after confirmation, saved.
func (s *State) Discover(ctx context.Context, opts DiscoverOptions) error {
	locals, err := s.Git.LocalBranches(ctx)
	if err != nil {
		return err
	}
	if len(locals) == 0 {
		return fmt.Errorf("no local branches found")
	}
	isLocal := map[refs.LocalBranch]bool{}
	for _, branch := range locals {
		isLocal[branch] = true
	}
	for _, root := range opts.Roots {
		if !isLocal[root] {
			return fmt.Errorf("%s is not a local branch", cliutil.Bold(root.String()))
		}
	}

	roots := append([]refs.LocalBranch{}, opts.Roots...)
	if len(roots) == 0 {
		if isLocal["master"] {
			roots = append(roots, "master")
		} else if isLocal["main"] {
			roots = append(roots, "main")
		}
		if isLocal["develop"] {
			roots = append(roots, "develop")
		}
	}

	// Keep the old annotations' qualifiers, drop their texts.
	oldLayout := s.Layout
	newLayout := layout.New()
	newLayout.SetIndent(oldLayout.Indent())
	for _, root := range roots {
		newLayout.AddRoot(root)
	}

	isRoot := map[refs.LocalBranch]bool{}
	for _, root := range roots {
		isRoot[root] = true
	}
	var nonRoots []refs.LocalBranch
	for _, branch := range locals {
		if !isRoot[branch] {
			nonRoots = append(nonRoots, branch)
		}
	}

	// Partition non-roots by the time they were last checked out.
	timestamps, err := s.Git.LatestCheckoutTimestamps(ctx)
	if err != nil {
		return err
	}
	type stampedBranch struct {
		ts     int64
		branch refs.LocalBranch
	}
	stamped := make([]stampedBranch, 0, len(nonRoots))
	for _, branch := range nonRoots {
		stamped = append(stamped, stampedBranch{timestamps[branch.String()], branch})
	}
	sort.Slice(stamped, func(i, j int) bool {
		if stamped[i].ts != stamped[j].ts {
			return stamped[i].ts < stamped[j].ts
		}
		return stamped[i].branch < stamped[j].branch
	})

	stale := map[refs.LocalBranch]bool{}
	if opts.CheckedOutSince != "" {
		threshold, err := s.Git.UnixTimestampFromTimespec(ctx, opts.CheckedOutSince)
		if err != nil {
			return err
		}
		for _, entry := range stamped {
			if entry.ts < threshold {
				stale[entry.branch] = true
			}
		}
	} else if len(stamped) > discoverDefaultFreshBranchCount {
		cut := len(stamped) - discoverDefaultFreshBranchCount
		for _, entry := range stamped[:cut] {
			stale[entry.branch] = true
		}
		thresholdDate := time.Unix(stamped[cut].ts, 0).UTC().Format("2006-01-02")
		s.Warn(fmt.Sprintf("to keep the size of the discovered tree reasonable (ca. %d branches), "+
			"only branches checked out at or after ca. %s are included.\n"+
			"Use `git machete discover --checked-out-since=<date>` (where <date> can be e.g. `'2 weeks ago'` or `2020-06-01`) "+
			"to change this threshold so that less or more branches are included",
			discoverDefaultFreshBranchCount, cliutil.Bold(thresholdDate)))
	}
	if opts.CheckedOutSince != "" && len(stale) == len(nonRoots) && len(roots) == 0 {
		s.Warn("no branches satisfying the criteria. Try moving the value of `--checked-out-since` further to the past")
		return nil
	}

	// Union-find over an evolving root-of map for cycle avoidance.
	rootOf := map[refs.LocalBranch]refs.LocalBranch{}
	for _, branch := range locals {
		rootOf[branch] = branch
	}
	var getRootOf func(branch refs.LocalBranch) refs.LocalBranch
	getRootOf = func(branch refs.LocalBranch) refs.LocalBranch {
		if branch != rootOf[branch] {
			rootOf[branch] = getRootOf(rootOf[branch])
		}
		return rootOf[branch]
	}

	// Oldest-first, so that the branches checked out earliest settle
	// their position before the newer ones attach below them.
	s.Layout = newLayout
	for _, entry := range stamped {
		branch := entry.branch
		if stale[branch] {
			continue
		}
		upstream, ok, err := s.InferUpstream(ctx, branch, func(candidate refs.LocalBranch) bool {
			return getRootOf(candidate) != branch && !stale[candidate]
		})
		if err != nil {
			s.Layout = oldLayout
			return err
		}
		if ok {
			newLayout.Attach(upstream, branch, false)
			rootOf[branch] = upstream
		} else {
			newLayout.AddRoot(branch)
		}
	}

	// Single pass: drop merged branches that gathered no children.
	// The removal is deliberately not recursive; a branch going
	// childless only after this pass is a rare enough corner case.
	var mergedToSkip []refs.LocalBranch
	for _, branch := range newLayout.Managed() {
		if _, hasParent := newLayout.Parent(branch); !hasParent || len(newLayout.Children(branch)) > 0 {
			continue
		}
		merged, err := s.IsMergedToParent(ctx, branch, SquashMergeDetectionNone)
		if err != nil {
			s.Layout = oldLayout
			return err
		}
		if merged {
			mergedToSkip = append(mergedToSkip, branch)
		}
	}
	if len(mergedToSkip) > 0 {
		names := make([]string, len(mergedToSkip))
		for i, branch := range mergedToSkip {
			names[i] = cliutil.Bold(branch.String())
		}
		verb := "it's"
		if len(mergedToSkip) > 1 {
			verb = "they're"
		}
		s.Warn(fmt.Sprintf("skipping %s since %s merged to another branch and would not have any downstream branches",
			strings.Join(names, ", "), verb))
		for _, branch := range mergedToSkip {
			newLayout.SlideOut(branch)
		}
	}

	// Carry qualifiers (not texts) over from the previous layout.
	for _, branch := range newLayout.Managed() {
		if a, ok := oldLayout.Annotation(branch); ok && !a.Qualifiers.IsDefault() {
			newLayout.SetAnnotation(branch, layout.Annotation{Qualifiers: a.Qualifiers})
		}
	}

	s.Printf("%s\n\n", cliutil.Bold("Discovered tree of branch dependencies:"))
	if err := s.Status(ctx, StatusOptions{
		ListCommits:          opts.ListCommits,
		SquashMergeDetection: SquashMergeDetectionNone,
	}); err != nil {
		s.Layout = oldLayout
		return err
	}
	s.Printf("\n")

	backupMsg := ""
	if currentText, err := layout.Load(s.LayoutPath); err == nil && len(currentText.Managed()) > 0 {
		backupMsg = fmt.Sprintf("\nThe existing branch layout file will be backed up as %s~", s.LayoutPath)
	}
	answer, err := s.AskIf(
		fmt.Sprintf("Save the above tree to %s?%s%s", s.LayoutPath, backupMsg, cliutil.PrettyChoices("y", "e[dit]", "N")),
		fmt.Sprintf("Saving the above tree to %s...%s", s.LayoutPath, backupMsg))
	if err != nil {
		return err
	}
	switch answer {
	case "y", "yes":
		return s.SaveLayout(true)
	case "e", "edit":
		if err := s.SaveLayout(true); err != nil {
			return err
		}
		return s.EditLayout(ctx)
	default:
		s.Layout = oldLayout
		return nil
	}
}
