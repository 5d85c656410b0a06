// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/git"
	"github.com/gizzahub/gzh-cli-machete/pkg/hosting"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// TraverseStartFrom selects where the traversal begins.
type TraverseStartFrom string

const (
	StartFromHere      TraverseStartFrom = "here"
	StartFromRoot      TraverseStartFrom = "root"
	StartFromFirstRoot TraverseStartFrom = "first-root"
)

// TraverseReturnTo selects where HEAD ends up after the traversal.
type TraverseReturnTo string

const (
	ReturnToHere             TraverseReturnTo = "here"
	ReturnToNearestRemaining TraverseReturnTo = "nearest-remaining"
	ReturnToStay             TraverseReturnTo = "stay"
)

// TraverseOptions are the policy flags of the traversal engine.
type TraverseOptions struct {
	Fetch               bool
	ListCommits         bool
	Merge               bool
	NoEditMerge         bool
	NoInteractiveRebase bool
	PushTracked         bool
	PushUntracked       bool
	ReturnTo            TraverseReturnTo
	StartFrom           TraverseStartFrom
	SquashMergeDetection SquashMergeDetection

	// SyncPRs retargets/creates PRs along the way; requires an
	// initialized hosting session on the state.
	SyncPRs bool

	// PickRemote resolves the remote for untracked branches when
	// neither a sole remote nor origin exists.
	PickRemote func(candidates []string) (string, error)
}

// Traverse walks the managed branches from the starting point and, for
// each one, offers the applicable actions in order: slide-out, rebase/
// merge onto parent, PR retargeting, remote sync, PR creation. The
// engine is stateless: re-invoking after a conflict resumes from the
// then-current branch.
func (s *State) Traverse(ctx context.Context, opts TraverseOptions) error {
	if err := s.ExpectNoOperationInProgress(ctx); err != nil {
		return err
	}
	if err := s.ExpectAtLeastOneManaged(); err != nil {
		return err
	}

	anyActionSuggested := false

	if opts.Fetch {
		remotes, err := s.Git.Remotes(ctx)
		if err != nil {
			return err
		}
		for _, remote := range remotes {
			enabled, err := s.Git.BoolConfig(ctx, "machete.traverse.fetch."+remote, true)
			if err != nil {
				return err
			}
			if enabled {
				s.Printf("Fetching %s...\n", cliutil.Bold(remote))
				if err := s.Git.Fetch(ctx, remote); err != nil {
					return err
				}
			}
		}
		if len(remotes) > 0 {
			s.Printf("\n")
			s.invalidateReflogIndex()
		}
	}

	currentUser := ""
	if opts.SyncPRs {
		if s.Hosting == nil {
			return unexpectedf("traverse --sync-prs requires an initialized code hosting session")
		}
		currentUser = s.Hosting.CurrentUser(ctx)
	}

	initialBranch, err := s.Git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	nearestRemaining := initialBranch

	currentBranch := initialBranch
	switch opts.StartFrom {
	case StartFromRoot:
		dest, err := s.RootBranch(initialBranch, false)
		if err != nil {
			return err
		}
		s.Printf("Checking out the root branch (%s)\n", cliutil.Bold(dest.String()))
		if err := s.Git.Checkout(ctx, dest); err != nil {
			return err
		}
		currentBranch = dest
	case StartFromFirstRoot:
		dest := s.Layout.Managed()[0]
		s.Printf("Checking out the first root branch (%s)\n", cliutil.Bold(dest.String()))
		if err := s.Git.Checkout(ctx, dest); err != nil {
			return err
		}
		currentBranch = dest
	default:
		if err := s.ExpectInManaged(currentBranch); err != nil {
			return err
		}
	}

	managed := s.Layout.Managed()
	startIdx := 0
	for i, branch := range managed {
		if branch == currentBranch {
			startIdx = i
			break
		}
	}

	for _, branch := range managed[startIdx:] {
		if !s.Layout.IsManaged(branch) {
			// Slid out by an earlier iteration.
			continue
		}
		upstream, hasUpstream := s.Layout.Parent(branch)
		qualifiers := s.Layout.Qualifiers(branch)

		needsSlideOut, err := s.IsMergedToParent(ctx, branch, opts.SquashMergeDetection)
		if err != nil {
			return err
		}
		if needsSlideOut {
			needsSlideOut = qualifiers.SlideOut
		}

		remoteStatus, remote, err := s.CombinedRemoteSyncStatus(ctx, branch)
		if err != nil {
			return err
		}
		needsRemoteSync := false
		switch remoteStatus {
		case RemoteBehind, RemoteDivergedAndOlder:
			needsRemoteSync = true
		case RemoteUntracked, RemoteAhead, RemoteDivergedAndNewer:
			needsRemoteSync = qualifiers.Push
			if !opts.PushTracked && !opts.PushUntracked {
				needsRemoteSync = false
			}
		}

		var pr *hosting.PullRequest
		needsRetargetPR := false
		needsCreatePR := false
		if opts.SyncPRs {
			allPRs, err := s.Hosting.AllOpenPRs(ctx)
			if err != nil {
				return err
			}
			var prsForHead []*hosting.PullRequest
			for _, candidate := range allPRs {
				if candidate.Head == branch.String() {
					prsForHead = append(prsForHead, candidate)
				}
			}
			if len(prsForHead) > 1 {
				spec := s.Hosting.Spec
				numbers := make([]string, len(prsForHead))
				for i, p := range prsForHead {
					numbers[i] = p.ShortDisplayText()
				}
				return fmt.Errorf("multiple %ss have %s as its %s branch: %v",
					spec.PRShortName, cliutil.Bold(branch.String()), spec.HeadBranchName, numbers)
			}
			if len(prsForHead) == 1 {
				pr = prsForHead[0]
			}
			needsRetargetPR = pr != nil && hasUpstream && pr.Base != upstream.String()
			needsCreatePR = pr == nil && hasUpstream
		}

		useMerge := opts.Merge || qualifiers.UpdateWithMerge

		var needsParentSync bool
		switch {
		case needsSlideOut:
			// The branch is going away; neither rebase nor merge will
			// be suggested anyway.
			needsParentSync = false
		case remoteStatus == RemoteDivergedAndOlder:
			// The branch qualifies for resetting to its remote
			// counterpart; same story.
			needsParentSync = false
		case useMerge:
			if hasUpstream {
				isAncestor, err := s.Git.IsAncestorOrEqual(ctx, upstream.Revision(), branch.Revision())
				if err != nil {
					return err
				}
				needsParentSync = !isAncestor
			}
		default:
			if hasUpstream {
				isAncestor, err := s.Git.IsAncestorOrEqual(ctx, upstream.Revision(), branch.Revision())
				if err != nil {
					return err
				}
				inSync := false
				if isAncestor {
					upstreamHash, _, err := s.Git.CommitHashByRevision(ctx, upstream.Revision())
					if err != nil {
						return err
					}
					if forkPoint, ok := s.ForkPointOrNone(ctx, branch, true); ok && forkPoint == upstreamHash {
						inSync = true
					}
				}
				needsParentSync = !inSync
				if needsParentSync {
					needsParentSync = qualifiers.Rebase
				}
			}
		}

		needsAnyAction := needsSlideOut || needsParentSync || needsRemoteSync || needsRetargetPR || needsCreatePR
		if branch != currentBranch && needsAnyAction {
			s.Printf("\nChecking out %s\n\n", cliutil.Bold(branch.String()))
			if err := s.Git.Checkout(ctx, branch); err != nil {
				return err
			}
			currentBranch = branch
			if err := s.Status(ctx, StatusOptions{
				ListCommits:          opts.ListCommits,
				SquashMergeDetection: opts.SquashMergeDetection,
				WarnWhenForkPointOff: true,
			}); err != nil {
				return err
			}
			s.Printf("\n")
		}

		if needsSlideOut {
			anyActionSuggested = true
			answer, err := s.AskIf(
				fmt.Sprintf("Branch %s is merged into %s. Slide %s out of the tree of branch dependencies?%s",
					cliutil.Bold(branch.String()), cliutil.Bold(upstream.String()),
					cliutil.Bold(branch.String()), cliutil.PrettyChoices("y", "N", "q", "yq")),
				fmt.Sprintf("Branch %s is merged into %s. Sliding %s out of the tree of branch dependencies...",
					cliutil.Bold(branch.String()), cliutil.Bold(upstream.String()),
					cliutil.Bold(branch.String())))
			if err != nil {
				return err
			}
			switch interpretAnswer(answer) {
			case actionApply, actionApplyThenStop:
				children := append([]refs.LocalBranch{}, s.Layout.Children(branch)...)
				if nearestRemaining == branch {
					if len(children) > 0 {
						nearestRemaining = children[0]
					} else {
						nearestRemaining = upstream
					}
				}
				s.Layout.SlideOut(branch)
				if err := s.SaveLayout(false); err != nil {
					return err
				}
				if err := s.runPostSlideOutHook(ctx, upstream, branch, children); err != nil {
					return err
				}
				if interpretAnswer(answer) == actionApplyThenStop {
					return nil
				}
				// No remote sync either: the branch just left the tree.
				continue
			case actionStop:
				return nil
			}
			// Answer was no: skip rebase/merge, but still suggest the
			// remote sync below (rare in practice).
		} else if needsParentSync {
			anyActionSuggested = true
			var answer string
			if useMerge {
				answer, err = s.AskIf(
					fmt.Sprintf("Merge %s into %s?%s", cliutil.Bold(upstream.String()),
						cliutil.Bold(branch.String()), cliutil.PrettyChoices("y", "N", "q", "yq")),
					fmt.Sprintf("Merging %s into %s...", cliutil.Bold(upstream.String()),
						cliutil.Bold(branch.String())))
			} else {
				answer, err = s.AskIf(
					fmt.Sprintf("Rebase %s onto %s?%s", cliutil.Bold(branch.String()),
						cliutil.Bold(upstream.String()), cliutil.PrettyChoices("y", "N", "q", "yq")),
					fmt.Sprintf("Rebasing %s onto %s...", cliutil.Bold(branch.String()),
						cliutil.Bold(upstream.String())))
			}
			if err != nil {
				return err
			}
			switch interpretAnswer(answer) {
			case actionApply, actionApplyThenStop:
				if useMerge {
					if err := s.Git.Merge(ctx, upstream, git.MergeOptions{NoEdit: opts.NoEditMerge}); err != nil {
						return err
					}
					s.invalidateReflogIndex()
					// A merge can be left in progress after a non-zero
					// exit (conflicts); check and stop cleanly.
					if op, _ := s.Git.InProgressOperationOrNone(ctx); op == git.OpMerge {
						s.Printf("\nMerge in progress; stopping the traversal\n")
						return nil
					}
				} else {
					forkPoint, _, err := s.ForkPoint(ctx, branch, true)
					if err != nil {
						return err
					}
					if err := s.rebaseOnto(ctx, upstream.Ref().Revision(), forkPoint.Revision(),
						branch, opts.NoInteractiveRebase); err != nil {
						return err
					}
					// Even a zero-exit interactive rebase may still be in
					// progress (e.g. stopped at an `edit` command).
					if rebased, ok := s.Git.CurrentlyRebasedBranch(ctx); ok {
						s.Printf("\nRebase of %s in progress; stopping the traversal\n", cliutil.Bold(rebased.String()))
						return nil
					}
				}
				if interpretAnswer(answer) == actionApplyThenStop {
					return nil
				}

				// Re-classify against the remote: the rebase/merge has
				// just moved the tip.
				remoteStatus, remote, err = s.CombinedRemoteSyncStatus(ctx, branch)
				if err != nil {
					return err
				}
				switch remoteStatus {
				case RemoteBehind, RemoteDivergedAndOlder:
					needsRemoteSync = true
				case RemoteUntracked, RemoteAhead, RemoteDivergedAndNewer:
					needsRemoteSync = qualifiers.Push
				default:
					needsRemoteSync = false
				}
			case actionStop:
				return nil
			}
		}

		if needsRetargetPR {
			anyActionSuggested = true
			spec := s.Hosting.Spec
			intro := fmt.Sprintf("Branch %s has a different %s %s (%s) in %s than in machete file (%s).\n",
				cliutil.Bold(branch.String()), spec.PRShortName, spec.BaseBranchName,
				cliutil.Bold(pr.Base), spec.DisplayName, cliutil.Bold(upstream.String()))
			answer, err := s.AskIf(
				intro+fmt.Sprintf("Retarget %s to %s?%s", pr.DisplayText(), cliutil.Bold(upstream.String()),
					cliutil.PrettyChoices("y", "N", "q", "yq")),
				intro+fmt.Sprintf("Retargeting %s to %s...", pr.DisplayText(), cliutil.Bold(upstream.String())))
			if err != nil {
				return err
			}
			switch interpretAnswer(answer) {
			case actionApply, actionApplyThenStop:
				if err := s.Hosting.Client.SetBase(ctx, pr.Number, upstream.String()); err != nil {
					return err
				}
				s.Printf("%s branch of %s has been switched to %s\n",
					capitalize(spec.BaseBranchName), pr.DisplayText(), cliutil.Bold(upstream.String()))
				pr.Base = upstream.String()

				annotation, err := s.prAnnotation(ctx, pr, currentUser)
				if err != nil {
					return err
				}
				s.setPRAnnotation(branch, annotation)
				if err := s.SaveLayout(false); err != nil {
					return err
				}

				newDescription, err := s.UpdatedPRDescription(ctx, pr)
				if err != nil {
					return err
				}
				if pr.Description != newDescription {
					if err := s.Hosting.Client.SetDescription(ctx, pr.Number, newDescription); err != nil {
						return err
					}
					pr.Description = newDescription
					s.Printf("Description of %s has been updated\n", pr.DisplayText())
				}
				if err := s.updateRelatedPRDescriptions(ctx, pr); err != nil {
					return err
				}
				if interpretAnswer(answer) == actionApplyThenStop {
					return nil
				}
			case actionStop:
				return nil
			}
		}

		if needsRemoteSync {
			anyActionSuggested = true
			var stop bool
			switch remoteStatus {
			case RemoteBehind:
				stop, err = s.handleBehindState(ctx, currentBranch, remote)
			case RemoteAhead:
				stop, err = s.handleAheadState(ctx, currentBranch, remote, opts.PushTracked)
			case RemoteDivergedAndOlder:
				stop, err = s.handleDivergedAndOlderState(ctx, currentBranch)
			case RemoteDivergedAndNewer:
				stop, err = s.handleDivergedAndNewerState(ctx, currentBranch, remote, opts.PushTracked)
			case RemoteUntracked:
				stop, err = s.handleUntrackedState(ctx, currentBranch, opts.PushUntracked, opts.PickRemote)
			default:
				return unexpectedf("unexpected remote sync status for %s", branch)
			}
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}

		if needsCreatePR {
			anyActionSuggested = true
			spec := s.Hosting.Spec
			intro := fmt.Sprintf("Branch %s does not have %s %s in %s.\n",
				cliutil.Bold(branch.String()), spec.PRShortNameArticle, spec.PRShortName, spec.DisplayName)
			answer, err := s.AskIf(
				intro+fmt.Sprintf("Create %s %s from %s to %s?%s", spec.PRShortNameArticle, spec.PRShortName,
					cliutil.Bold(branch.String()), cliutil.Bold(upstream.String()),
					cliutil.PrettyChoices("y", "d[raft]", "N", "q", "yq")),
				intro+fmt.Sprintf("Creating %s %s from %s to %s...", spec.PRShortNameArticle, spec.PRShortName,
					cliutil.Bold(branch.String()), cliutil.Bold(upstream.String())))
			if err != nil {
				return err
			}
			switch answer {
			case "y", "yes", "yq", "d", "draft":
				if err := s.CreatePullRequest(ctx, currentBranch, CreatePROptions{
					Draft:                     answer == "d" || answer == "draft",
					UpdateRelatedDescriptions: true,
				}); err != nil {
					return err
				}
				if answer == "yq" {
					return nil
				}
			case "q", "quit":
				return nil
			}
		}
	}

	switch opts.ReturnTo {
	case ReturnToHere:
		if err := s.Git.Checkout(ctx, initialBranch); err != nil {
			return err
		}
	case ReturnToNearestRemaining:
		if err := s.Git.Checkout(ctx, nearestRemaining); err != nil {
			return err
		}
	}

	s.Printf("\n")
	if err := s.Status(ctx, StatusOptions{
		ListCommits:          opts.ListCommits,
		SquashMergeDetection: opts.SquashMergeDetection,
		WarnWhenForkPointOff: true,
	}); err != nil {
		return err
	}
	s.Printf("\n")

	managed = s.Layout.Managed()
	if len(managed) > 0 && currentBranch == managed[len(managed)-1] {
		s.Printf("Reached branch %s which has no successor; nothing left to update\n",
			cliutil.Bold(currentBranch.String()))
	} else {
		s.Printf("No successor of %s needs to be slid out or synced with upstream branch or remote; nothing left to update\n",
			cliutil.Bold(currentBranch.String()))
	}
	if !anyActionSuggested && !s.Layout.IsRoot(initialBranch) {
		s.Printf("Tip: `traverse` by default starts from the current branch, " +
			"use flags (`--start-from=`, `--whole` or `-w`, `-W`) to change this behavior.\n" +
			"Further info under `git machete traverse --help`.\n")
	}
	switch {
	case opts.ReturnTo == ReturnToHere,
		opts.ReturnTo == ReturnToNearestRemaining && nearestRemaining == initialBranch:
		s.Printf("Returned to the initial branch %s\n", cliutil.Bold(initialBranch.String()))
	case opts.ReturnTo == ReturnToNearestRemaining && nearestRemaining != initialBranch:
		s.Printf("The initial branch %s has been slid out. Returned to nearest remaining managed branch %s\n",
			cliutil.Bold(initialBranch.String()), cliutil.Bold(nearestRemaining.String()))
	}
	return nil
}
