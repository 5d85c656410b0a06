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

// askAction interprets a y/N/q/yq answer: apply, then possibly stop.
type askAction int

const (
	actionSkip askAction = iota
	actionApply
	actionApplyThenStop
	actionStop
)

func interpretAnswer(answer string) askAction {
	switch answer {
	case "y", "yes":
		return actionApply
	case "yq":
		return actionApplyThenStop
	case "q", "quit":
		return actionStop
	}
	return actionSkip
}

// askIfOverridable is AskIf with an override: when overrideAnswer is
// non-empty, it is used without prompting (e.g. --no-push forces "N").
func (s *State) askIfOverridable(msg, yesMsg, overrideAnswer string) (string, error) {
	if overrideAnswer != "" {
		return overrideAnswer, nil
	}
	return s.AskIf(msg, yesMsg)
}

// pushBranch pushes branch to remote, forcing with lease when the
// remote history is being rewritten.
func (s *State) pushBranch(ctx context.Context, branch refs.LocalBranch, remote string, forceWithLease bool) (bool, error) {
	err := s.Git.Push(ctx, remote, branch, git.PushOptions{ForceWithLease: forceWithLease})
	if err != nil {
		return false, err
	}
	s.invalidateReflogIndex()
	return true, nil
}

// handleBehindState offers a fast-forward pull. Returns stop=true on q/yq.
func (s *State) handleBehindState(ctx context.Context, branch refs.LocalBranch, remote string) (bool, error) {
	remoteBranch, ok, err := s.Git.CombinedCounterpart(ctx, branch)
	if err != nil || !ok {
		return false, err
	}
	answer, err := s.AskIf(
		fmt.Sprintf("Branch %s is behind its remote counterpart %s.\nPull %s (fast-forward only) from %s?%s",
			cliutil.Bold(branch.String()), cliutil.Bold(remoteBranch.String()),
			cliutil.Bold(branch.String()), cliutil.Bold(remote), cliutil.PrettyChoices("y", "N", "q", "yq")),
		fmt.Sprintf("Branch %s is behind its remote counterpart %s.\nPulling %s (fast-forward only) from %s...",
			cliutil.Bold(branch.String()), cliutil.Bold(remoteBranch.String()),
			cliutil.Bold(branch.String()), cliutil.Bold(remote)))
	if err != nil {
		return true, err
	}
	switch interpretAnswer(answer) {
	case actionApply, actionApplyThenStop:
		if err := s.Git.PullFFOnly(ctx, remote, remoteBranch); err != nil {
			return true, err
		}
		s.invalidateReflogIndex()
		return interpretAnswer(answer) == actionApplyThenStop, nil
	case actionStop:
		return true, nil
	}
	return false, nil
}

// handleAheadState offers a plain push; pushTracked=false forces "no".
func (s *State) handleAheadState(ctx context.Context, branch refs.LocalBranch, remote string,
	pushTracked bool) (bool, error) {
	override := ""
	if !pushTracked {
		override = "N"
	}
	answer, err := s.askIfOverridable(
		fmt.Sprintf("Push %s to %s?%s", cliutil.Bold(branch.String()), cliutil.Bold(remote),
			cliutil.PrettyChoices("y", "N", "q", "yq")),
		fmt.Sprintf("Pushing %s to %s...", cliutil.Bold(branch.String()), cliutil.Bold(remote)),
		override)
	if err != nil {
		return true, err
	}
	switch interpretAnswer(answer) {
	case actionApply, actionApplyThenStop:
		if _, err := s.pushBranch(ctx, branch, remote, false); err != nil {
			return true, err
		}
		return interpretAnswer(answer) == actionApplyThenStop, nil
	case actionStop:
		return true, nil
	}
	return false, nil
}

// handleDivergedAndNewerState offers a force-with-lease push.
func (s *State) handleDivergedAndNewerState(ctx context.Context, branch refs.LocalBranch, remote string,
	pushTracked bool) (bool, error) {
	remoteBranch, ok, err := s.Git.CombinedCounterpart(ctx, branch)
	if err != nil || !ok {
		return false, err
	}
	override := ""
	if !pushTracked {
		override = "N"
	}
	answer, err := s.askIfOverridable(
		fmt.Sprintf("Branch %s diverged from (and has newer commits than) its remote counterpart %s.\n"+
			"Push %s with force-with-lease to %s?%s",
			cliutil.Bold(branch.String()), cliutil.Bold(remoteBranch.String()),
			cliutil.Bold(branch.String()), cliutil.Bold(remote), cliutil.PrettyChoices("y", "N", "q", "yq")),
		fmt.Sprintf("Branch %s diverged from (and has newer commits than) its remote counterpart %s.\n"+
			"Pushing %s with force-with-lease to %s...",
			cliutil.Bold(branch.String()), cliutil.Bold(remoteBranch.String()),
			cliutil.Bold(branch.String()), cliutil.Bold(remote)),
		override)
	if err != nil {
		return true, err
	}
	switch interpretAnswer(answer) {
	case actionApply, actionApplyThenStop:
		if _, err := s.pushBranch(ctx, branch, remote, true); err != nil {
			return true, err
		}
		return interpretAnswer(answer) == actionApplyThenStop, nil
	case actionStop:
		return true, nil
	}
	return false, nil
}

// handleAheadOrDivergedForPush is the non-interactive-friendly variant
// used outside of traverse (e.g. before creating a PR).
func (s *State) handleAheadOrDivergedForPush(ctx context.Context, branch refs.LocalBranch, remote string,
	status RemoteSyncStatus, pushTrackedOverridesNo bool) (bool, error) {
	if status == RemoteDivergedAndNewer {
		return s.handleDivergedAndNewerState(ctx, branch, remote, !pushTrackedOverridesNo)
	}
	return s.handleAheadState(ctx, branch, remote, !pushTrackedOverridesNo)
}

// handleDivergedAndOlderState offers resetting the branch to its remote
// counterpart.
func (s *State) handleDivergedAndOlderState(ctx context.Context, branch refs.LocalBranch) (bool, error) {
	remoteBranch, ok, err := s.Git.CombinedCounterpart(ctx, branch)
	if err != nil || !ok {
		return false, err
	}
	answer, err := s.AskIf(
		fmt.Sprintf("Branch %s diverged from (and has older commits than) its remote counterpart %s.\n"+
			"Reset branch %s to the commit pointed by %s?%s",
			cliutil.Bold(branch.String()), cliutil.Bold(remoteBranch.String()),
			cliutil.Bold(branch.String()), cliutil.Bold(remoteBranch.String()),
			cliutil.PrettyChoices("y", "N", "q", "yq")),
		fmt.Sprintf("Branch %s diverged from (and has older commits than) its remote counterpart %s.\n"+
			"Resetting branch %s to the commit pointed by %s...",
			cliutil.Bold(branch.String()), cliutil.Bold(remoteBranch.String()),
			cliutil.Bold(branch.String()), cliutil.Bold(remoteBranch.String())))
	if err != nil {
		return true, err
	}
	switch interpretAnswer(answer) {
	case actionApply, actionApplyThenStop:
		if err := s.Git.ResetKeep(ctx, remoteBranch.Revision()); err != nil {
			return true, err
		}
		s.invalidateReflogIndex()
		return interpretAnswer(answer) == actionApplyThenStop, nil
	case actionStop:
		return true, nil
	}
	return false, nil
}

// handleUntrackedState picks the remote (sole one, origin, or asking
// the user) and delegates to handleUntrackedBranch.
func (s *State) handleUntrackedState(ctx context.Context, branch refs.LocalBranch,
	pushUntracked bool,
	pick func(candidates []string) (string, error)) (bool, error) {
	remotes, err := s.Git.Remotes(ctx)
	if err != nil {
		return false, err
	}
	var remote string
	switch {
	case len(remotes) == 1:
		remote = remotes[0]
	case contains(remotes, "origin"):
		remote = "origin"
	default:
		// At least one remote exists, otherwise the state would have
		// been NO_REMOTES rather than UNTRACKED.
		s.Printf("Branch %s is untracked and there's no %s remote.\n",
			cliutil.Bold(branch.String()), cliutil.Bold("origin"))
		if pick == nil {
			return false, fmt.Errorf("branch %s is untracked; push it to one of the remotes %v first",
				branch, remotes)
		}
		remote, err = pick(remotes)
		if err != nil {
			return true, err
		}
	}
	err = s.handleUntrackedBranch(ctx, branch, remote, true, pushUntracked)
	if err == ErrInteractionStopped {
		return true, nil
	}
	return false, err
}

func contains(haystack []string, needle string) bool {
	for _, item := range haystack {
		if item == needle {
			return true
		}
	}
	return false
}

// handleUntrackedBranch offers pushing an untracked branch to remote.
func (s *State) handleUntrackedBranch(ctx context.Context, branch refs.LocalBranch, remote string,
	fromTraverse, pushUntracked bool) error {
	override := ""
	if !pushUntracked {
		override = "N"
	}
	choices := cliutil.PrettyChoices("y", "N", "q", "yq")
	if !fromTraverse {
		choices = cliutil.PrettyChoices("y", "Q")
	}
	answer, err := s.askIfOverridable(
		fmt.Sprintf("Push untracked branch %s to %s?%s", cliutil.Bold(branch.String()),
			cliutil.Bold(remote), choices),
		fmt.Sprintf("Pushing untracked branch %s to %s...", cliutil.Bold(branch.String()),
			cliutil.Bold(remote)),
		override)
	if err != nil {
		return err
	}
	switch interpretAnswer(answer) {
	case actionApply, actionApplyThenStop:
		if _, err := s.pushBranch(ctx, branch, remote, false); err != nil {
			return err
		}
		if interpretAnswer(answer) == actionApplyThenStop {
			return ErrInteractionStopped
		}
		return nil
	case actionStop:
		return ErrInteractionStopped
	}
	return nil
}
