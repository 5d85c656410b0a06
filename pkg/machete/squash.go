// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// Squash folds the commits between the fork point (exclusive) and the
// current branch tip into a single commit, retaining the authorship of
// the earliest commit in the range.
func (s *State) Squash(ctx context.Context, forkPoint refs.Revision) error {
	if err := s.ExpectNoOperationInProgress(ctx); err != nil {
		return err
	}
	current, err := s.Git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if forkPoint == "" {
		hash, _, err := s.ForkPoint(ctx, current, true)
		if err != nil {
			return err
		}
		forkPoint = hash.Revision()
	} else {
		if err := s.checkForkPointIsAncestorOfTip(ctx, forkPoint, current); err != nil {
			return err
		}
	}

	commits, err := s.Git.CommitsBetween(ctx, forkPoint, current.Revision())
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		return fmt.Errorf("no commits to squash; use `-f` or `--fork-point` to specify the " +
			"start of range of commits to squash")
	}
	if len(commits) == 1 {
		s.Printf("Exactly one commit (%s) to squash, ignoring.\n", cliutil.Bold(commits[0].ShortHash.String()))
		s.Printf("Tip: use `-f` or `--fork-point` to specify where the range of commits to squash starts.\n")
		return nil
	}

	earliest := commits[0]
	message, err := s.Git.CommitMessageByRevision(ctx, earliest.Hash.Revision())
	if err != nil {
		return err
	}
	// Following the convention of git cherry-pick, commit --amend,
	// rebase etc.: the original author is retained, only the committer
	// gets overwritten.
	author, err := s.Git.AuthorIdentityByRevision(ctx, earliest.Hash.Revision())
	if err != nil {
		return err
	}

	tree, ok, err := s.Git.TreeHashByRevision(ctx, current.Revision())
	if err != nil {
		return err
	}
	if !ok {
		return unexpectedf("cannot resolve tree of %s", current)
	}
	parent, ok, err := s.Git.CommitHashByRevision(ctx, forkPoint)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("cannot find revision %s", forkPoint)
	}

	squashed, err := s.Git.CommitTree(ctx, tree, parent, message, author.Env())
	if err != nil {
		return err
	}

	// This can't be done with `git reset`: reset's reflog subject would
	// be filtered out by the fork-point algorithm, so the squashed
	// commit would no longer "belong" to the branch's history.
	if err := s.Git.UpdateRef(ctx, "HEAD", squashed, "squash: "+earliest.Subject); err != nil {
		return err
	}
	s.invalidateReflogIndex()

	s.Printf("Squashed %d commits:\n\n", len(commits))
	for _, commit := range commits {
		s.Printf("    %s %s\n", commit.ShortHash, commit.Subject)
	}
	s.Printf("\nTo restore the original pre-squash commit, run:\n\n")
	s.Printf("    `git reset %s`\n", commits[len(commits)-1].Hash)
	return nil
}
