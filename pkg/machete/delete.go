// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// deleteBranches removes local branches, asking per branch unless Yes.
// A branch merged to HEAD (and to its remote counterpart, when one
// exists) only needs a plain -d; anything else warrants -D and a more
// insistent prompt.
func (s *State) deleteBranches(ctx context.Context, branches []refs.LocalBranch,
	mode SquashMergeDetection, force bool) error {
	for _, branch := range branches {
		if force {
			s.Printf("Deleting branch %s...\n", cliutil.Bold(branch.String()))
			if err := s.Git.DeleteBranch(ctx, branch, true); err != nil {
				return err
			}
			continue
		}

		mergedToHead, err := s.IsMergedTo(ctx, branch.String(), branch.Revision(), "HEAD", mode)
		if err != nil {
			return err
		}
		mergedEverywhere := mergedToHead
		if mergedToHead {
			remoteBranch, hasRemote, err := s.Git.StrictCounterpart(ctx, branch)
			if err != nil {
				return err
			}
			if hasRemote {
				mergedEverywhere, err = s.IsMergedTo(ctx, branch.String(), branch.Revision(),
					remoteBranch.Revision(), mode)
				if err != nil {
					return err
				}
			}
		}

		var msg, yesMsg string
		if mergedEverywhere {
			msg = fmt.Sprintf("Delete branch %s (merged to HEAD)?%s",
				cliutil.Bold(branch.String()), cliutil.PrettyChoices("y", "N", "q"))
			yesMsg = fmt.Sprintf("Deleting branch %s (merged to HEAD)...", cliutil.Bold(branch.String()))
		} else {
			msg = fmt.Sprintf("Delete branch %s (unmerged to HEAD)?%s",
				cliutil.Bold(branch.String()), cliutil.PrettyChoices("y", "N", "q"))
			yesMsg = fmt.Sprintf("Deleting branch %s (unmerged to HEAD)...", cliutil.Bold(branch.String()))
		}
		answer, err := s.AskIf(msg, yesMsg)
		if err != nil {
			return err
		}
		switch answer {
		case "y", "yes":
			if err := s.Git.DeleteBranch(ctx, branch, !mergedEverywhere); err != nil {
				return err
			}
		case "q", "quit":
			return nil
		}
	}
	return nil
}

// DeleteUnmanaged safely deletes local branches absent from the layout.
func (s *State) DeleteUnmanaged(ctx context.Context, mode SquashMergeDetection) error {
	locals, err := s.Git.LocalBranches(ctx)
	if err != nil {
		return err
	}
	current, hasCurrent := s.Git.CurrentBranchOrNone(ctx)

	var toDelete []refs.LocalBranch
	for _, branch := range locals {
		if s.Layout.IsManaged(branch) {
			continue
		}
		if hasCurrent && branch == current {
			s.Warn(fmt.Sprintf("skipping current branch %s", cliutil.Bold(branch.String())))
			continue
		}
		toDelete = append(toDelete, branch)
	}
	if len(toDelete) == 0 {
		s.Printf("No branches to delete\n")
		return nil
	}
	s.Printf("Checking for unmanaged branches...\n")
	return s.deleteBranches(ctx, toDelete, mode, false)
}

// DisplayDiff shows the diff of a branch (or the working tree) against
// its fork point.
func (s *State) DisplayDiff(ctx context.Context, branch refs.LocalBranch, extraArgs ...string) error {
	if branch == "" {
		current, err := s.Git.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		forkPoint, _, err := s.ForkPoint(ctx, current, true)
		if err != nil {
			return err
		}
		return s.Git.DisplayDiff(ctx, forkPoint.Revision(), "", extraArgs...)
	}
	forkPoint, _, err := s.ForkPoint(ctx, branch, true)
	if err != nil {
		return err
	}
	return s.Git.DisplayDiff(ctx, forkPoint.Revision(), branch, extraArgs...)
}

// DisplayLog shows the log of a branch down to its fork point.
func (s *State) DisplayLog(ctx context.Context, branch refs.LocalBranch, extraArgs ...string) error {
	if branch == "" {
		current, err := s.Git.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		branch = current
	}
	forkPoint, _, err := s.ForkPoint(ctx, branch, true)
	if err != nil {
		return err
	}
	return s.Git.DisplayLog(ctx, branch, forkPoint.Revision(), extraArgs...)
}
