// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/git"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// Advance fast-forwards the current branch to its unique green-edge
// child, optionally pushes it, and offers to slide the child out.
func (s *State) Advance(ctx context.Context,
	pick func(candidates []refs.LocalBranch) (refs.LocalBranch, error)) error {
	if err := s.ExpectNoOperationInProgress(ctx); err != nil {
		return err
	}
	branch, err := s.Git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if err := s.ExpectInManaged(branch); err != nil {
		return err
	}

	children := s.Layout.Children(branch)
	if len(children) == 0 {
		return fmt.Errorf("%s does not have any downstream (child) branches to advance towards",
			cliutil.Bold(branch.String()))
	}

	connectedWithGreenEdge := func(child refs.LocalBranch) (bool, error) {
		merged, err := s.IsMergedToParent(ctx, child, SquashMergeDetectionNone)
		if err != nil || merged {
			return false, err
		}
		isAncestor, err := s.Git.IsAncestorOrEqual(ctx, branch.Revision(), child.Revision())
		if err != nil || !isAncestor {
			return false, err
		}
		if _, overridden, err := s.overriddenForkPoint(ctx, child); err != nil {
			return false, err
		} else if overridden {
			return true, nil
		}
		branchHash, _, err := s.Git.CommitHashByRevision(ctx, branch.Revision())
		if err != nil {
			return false, err
		}
		forkPoint, ok := s.ForkPointOrNone(ctx, child, false)
		return ok && forkPoint == branchHash, nil
	}

	var candidates []refs.LocalBranch
	for _, child := range children {
		green, err := connectedWithGreenEdge(child)
		if err != nil {
			return err
		}
		if green {
			candidates = append(candidates, child)
		}
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no downstream (child) branch of %s is connected to %s with a green edge",
			cliutil.Bold(branch.String()), cliutil.Bold(branch.String()))
	}

	var child refs.LocalBranch
	if len(candidates) > 1 {
		if s.Yes {
			return fmt.Errorf("more than one downstream (child) branch of %s is connected to %s "+
				"with a green edge and `-y/--yes` option is specified",
				cliutil.Bold(branch.String()), cliutil.Bold(branch.String()))
		}
		if pick == nil {
			return fmt.Errorf("more than one downstream (child) branch of %s is connected with a green edge",
				cliutil.Bold(branch.String()))
		}
		child, err = pick(candidates)
		if err != nil {
			return err
		}
		if err := s.Git.MergeFFOnly(ctx, child); err != nil {
			return err
		}
	} else {
		child = candidates[0]
		answer, err := s.AskIf(
			fmt.Sprintf("Fast-forward %s to match %s?%s", cliutil.Bold(branch.String()),
				cliutil.Bold(child.String()), cliutil.PrettyChoices("y", "N")),
			fmt.Sprintf("Fast-forwarding %s to match %s...", cliutil.Bold(branch.String()),
				cliutil.Bold(child.String())))
		if err != nil {
			return err
		}
		if answer != "y" && answer != "yes" {
			return nil
		}
		if err := s.Git.MergeFFOnly(ctx, child); err != nil {
			return err
		}
	}
	s.invalidateReflogIndex()

	remote, hasRemote, err := s.Git.CombinedRemote(ctx, branch)
	if err != nil {
		return err
	}
	statusMsg := fmt.Sprintf("\nBranch %s is now fast-forwarded to match %s.",
		cliutil.Bold(branch.String()), cliutil.Bold(child.String()))
	if hasRemote && s.Layout.Qualifiers(branch).Push {
		answer, err := s.AskIf(
			fmt.Sprintf("%s Push %s to %s?%s", statusMsg, cliutil.Bold(branch.String()),
				cliutil.Bold(remote), cliutil.PrettyChoices("y", "N")),
			fmt.Sprintf("%s Pushing %s to %s...", statusMsg, cliutil.Bold(branch.String()),
				cliutil.Bold(remote)))
		if err != nil {
			return err
		}
		if answer == "y" || answer == "yes" {
			if err := s.Git.Push(ctx, remote, branch, git.PushOptions{}); err != nil {
				return err
			}
			statusMsg = fmt.Sprintf("\nBranch %s is now pushed to %s.", cliutil.Bold(branch.String()), cliutil.Bold(remote))
		}
	}

	if !s.Layout.Qualifiers(child).SlideOut {
		return nil
	}
	answer, err := s.AskIf(
		fmt.Sprintf("%s Slide %s out of the tree of branch dependencies?%s",
			statusMsg, cliutil.Bold(child.String()), cliutil.PrettyChoices("y", "N")),
		fmt.Sprintf("%s Sliding %s out of the tree of branch dependencies...",
			statusMsg, cliutil.Bold(child.String())))
	if err != nil {
		return err
	}
	if answer != "y" && answer != "yes" {
		return nil
	}
	grandchildren := append([]refs.LocalBranch{}, s.Layout.Children(child)...)
	s.Layout.SlideOut(child)
	if err := s.SaveLayout(false); err != nil {
		return err
	}
	return s.runPostSlideOutHook(ctx, branch, child, grandchildren)
}
