// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// SquashMergeDetection selects how hard the engine tries to recognize
// squash or rebase merges.
type SquashMergeDetection string

const (
	// SquashMergeDetectionNone only recognizes explicit merges.
	SquashMergeDetectionNone SquashMergeDetection = "none"

	// SquashMergeDetectionSimple additionally looks for a commit
	// reachable from the upstream with a tree identical to the branch.
	SquashMergeDetectionSimple SquashMergeDetection = "simple"

	// SquashMergeDetectionExact additionally compares patch-ids against
	// the recent commits of the upstream.
	SquashMergeDetectionExact SquashMergeDetection = "exact"
)

// ParseSquashMergeDetection validates a mode string.
func ParseSquashMergeDetection(value string) (SquashMergeDetection, error) {
	switch SquashMergeDetection(value) {
	case SquashMergeDetectionNone, SquashMergeDetectionSimple, SquashMergeDetectionExact:
		return SquashMergeDetection(value), nil
	}
	return "", fmt.Errorf("invalid squash merge detection mode: %s (valid values: none, simple, exact)", value)
}

// SquashMergeDetectionFromConfig reads machete.squashMergeDetection,
// defaulting to simple.
func (s *State) SquashMergeDetectionFromConfig(ctx context.Context) (SquashMergeDetection, error) {
	value, ok, err := s.Git.ConfigValue(ctx, ConfigKeySquashMergeDetection)
	if err != nil {
		return "", err
	}
	if !ok {
		return SquashMergeDetectionSimple, nil
	}
	mode, err := ParseSquashMergeDetection(value)
	if err != nil {
		return "", fmt.Errorf("%w (from `%s` git config key)", err, ConfigKeySquashMergeDetection)
	}
	return mode, nil
}

// IsMergedTo decides whether branch is merged into upstream under the
// given detection mode. Both arguments are passed as (short name, full
// ref) so that HEAD and remote branches work too.
func (s *State) IsMergedTo(ctx context.Context, branchShort string, branchRef refs.Revision,
	upstreamRef refs.Revision, mode SquashMergeDetection) (bool, error) {
	isAncestor, err := s.Git.IsAncestorOrEqual(ctx, branchRef, upstreamRef)
	if err != nil {
		return false, err
	}
	if isAncestor {
		// The branch being an ancestor of (or equal to) the upstream
		// could mean either a fast-forward merge, or a branch freshly
		// created from the upstream and never advanced. A non-empty
		// filtered reflog tells the two apart.
		reflog, err := s.FilteredReflog(ctx, branchShort, branchRef)
		if err != nil {
			return false, err
		}
		return len(reflog) > 0, nil
	}
	switch mode {
	case SquashMergeDetectionNone:
		return false, nil
	case SquashMergeDetectionSimple:
		return s.Git.IsEquivalentTreeReachable(ctx, branchRef, upstreamRef)
	case SquashMergeDetectionExact:
		treeReachable, err := s.Git.IsEquivalentTreeReachable(ctx, branchRef, upstreamRef)
		if err != nil || treeReachable {
			return treeReachable, err
		}
		return s.Git.IsEquivalentPatchReachable(ctx, branchRef, upstreamRef)
	}
	return false, unexpectedf("invalid squash merge detection mode: %s", mode)
}

// IsMergedToParent is IsMergedTo against the branch's layout parent.
func (s *State) IsMergedToParent(ctx context.Context, branch refs.LocalBranch, mode SquashMergeDetection) (bool, error) {
	upstream, ok := s.Layout.Parent(branch)
	if !ok {
		return false, nil
	}
	return s.IsMergedTo(ctx, branch.String(), branch.Revision(), upstream.Revision(), mode)
}
