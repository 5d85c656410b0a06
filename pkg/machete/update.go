// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"os"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/git"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// rebaseOptsFromEnv splits GIT_MACHETE_REBASE_OPTS on whitespace; the
// result is passed through to every git rebase invocation.
func rebaseOptsFromEnv() []string {
	return strings.Fields(os.Getenv("GIT_MACHETE_REBASE_OPTS"))
}

// UpdateOptions configure Update.
type UpdateOptions struct {
	// Merge merges the parent into the current branch instead of
	// rebasing onto it.
	Merge bool

	// ForkPoint overrides the inferred fork point (rebase mode only).
	ForkPoint refs.Revision

	NoInteractiveRebase bool
	NoEditMerge         bool
}

// Update rebases the current branch onto its parent (fork point to
// parent tip), or merges the parent into it.
func (s *State) Update(ctx context.Context, opts UpdateOptions) error {
	if err := s.ExpectNoOperationInProgress(ctx); err != nil {
		return err
	}
	current, err := s.Git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	useMerge := opts.Merge || s.Layout.Qualifiers(current).UpdateWithMerge
	if useMerge {
		if opts.ForkPoint != "" {
			return &UnexpectedError{Msg: "option `--fork-point` only makes sense when updating via rebase"}
		}
		parent, ok := s.Layout.Parent(current)
		if !ok {
			return gitStatef("branch %s has no upstream branch to merge", cliutil.Bold(current.String()))
		}
		err := s.Git.Merge(ctx, parent, git.MergeOptions{NoEdit: opts.NoEditMerge})
		s.invalidateReflogIndex()
		return err
	}

	parent, ok := s.Layout.Parent(current)
	if !ok {
		return gitStatef("branch %s has no upstream branch to rebase onto", cliutil.Bold(current.String()))
	}
	forkPoint := opts.ForkPoint
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
	return s.rebaseOnto(ctx, parent.Ref().Revision(), forkPoint, current, opts.NoInteractiveRebase)
}

// Reapply interactively rebases the current branch onto its own fork
// point, without changing where the branch is based.
func (s *State) Reapply(ctx context.Context, forkPoint refs.Revision) error {
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
	return s.rebaseOnto(ctx, forkPoint, forkPoint, current, false)
}
