// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// BranchPair names a local branch together with either the branch
// itself or its remote counterpart, depending on whose filtered reflog
// contained the commit.
type BranchPair struct {
	Local         refs.LocalBranch
	LocalOrRemote string
}

// initialCommitCountForLog bounds the first round of the commit walk;
// the full history is only read when the first ten commits of the
// branch yield no reflog match.
const initialCommitCountForLog = 10

// FilteredReflog returns the reflog hashes of a branch with the
// entries irrelevant for fork-point inference removed: branch creation,
// resets, bare fetches, no-op rebases and (for remote branches) pushes.
func (s *State) FilteredReflog(ctx context.Context, shortName string, fullRef refs.Revision) ([]refs.CommitHash, error) {
	entries, err := s.Git.Reflog(ctx, fullRef)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	isExcludedSubject := func(hash refs.CommitHash, subject string) bool {
		return strings.HasPrefix(subject, "branch: Created from") ||
			subject == "branch: Reset to "+shortName ||
			subject == "branch: Reset to HEAD" ||
			strings.HasPrefix(subject, "reset: moving to ") ||
			strings.HasPrefix(subject, "fetch . ") ||
			// The rare case of a no-op rebase; the exact wording
			// likely depends on git version.
			subject == fmt.Sprintf("rebase finished: %s onto %s", fullRef, hash) ||
			subject == fmt.Sprintf("rebase -i (finish): %s onto %s", fullRef, hash) ||
			// For remote branches, do NOT include the pushes: a branch
			// can be pushed directly after being created, which would
			// make the fork point inferred too late in the history.
			subject == "update by push"
	}

	// The reflog comes latest first; its last entry is the earliest.
	hashesToExclude := map[refs.CommitHash]bool{}
	earliest := entries[len(entries)-1]
	if strings.HasPrefix(earliest.Subject, "branch: Created from") {
		// Skip any entry with the hash of the creation entry, not just
		// the creation entry itself.
		hashesToExclude[earliest.Hash] = true
	}

	var result []refs.CommitHash
	for _, entry := range entries {
		if hashesToExclude[entry.Hash] || isExcludedSubject(entry.Hash, entry.Subject) {
			continue
		}
		result = append(result, entry.Hash)
	}
	return result, nil
}

// branchPairsByHashInReflog builds (once per run) the index from commit
// hash to the branches whose filtered reflog contains it. Entries of a
// local branch and its tracking branch are deduplicated within the
// family.
func (s *State) branchPairsByHashInReflog(ctx context.Context) (map[refs.CommitHash][]BranchPair, error) {
	if s.branchPairIdx != nil {
		return s.branchPairIdx, nil
	}
	index := map[refs.CommitHash][]BranchPair{}
	add := func(hash refs.CommitHash, pair BranchPair) {
		index[hash] = append(index[hash], pair)
	}

	locals, err := s.Git.LocalBranches(ctx)
	if err != nil {
		return nil, err
	}
	for _, local := range locals {
		localHashes := map[refs.CommitHash]bool{}
		hashes, err := s.FilteredReflog(ctx, local.String(), local.Ref().Revision())
		if err != nil {
			return nil, err
		}
		for _, hash := range hashes {
			localHashes[hash] = true
			add(hash, BranchPair{Local: local, LocalOrRemote: local.String()})
		}
		remoteBranch, ok, err := s.Git.CombinedCounterpart(ctx, local)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		remoteHashes, err := s.FilteredReflog(ctx, remoteBranch.String(), remoteBranch.Ref().Revision())
		if err != nil {
			return nil, err
		}
		for _, hash := range remoteHashes {
			if !localHashes[hash] {
				add(hash, BranchPair{Local: local, LocalOrRemote: remoteBranch.String()})
			}
		}
	}
	s.branchPairIdx = index
	return index, nil
}

// matchLogToFilteredReflogs walks the commits of branch newest first
// (spoon-fed: the first ten, then the rest) and calls visit for every
// commit found in the filtered reflog of some OTHER branch (or its
// remote counterpart). Iteration stops when visit returns stop.
func (s *State) matchLogToFilteredReflogs(ctx context.Context, branch refs.LocalBranch,
	visit func(hash refs.CommitHash, pairs []BranchPair) (stop bool, err error)) error {
	index, err := s.branchPairsByHashInReflog(ctx)
	if err != nil {
		return err
	}
	tip, ok, err := s.Git.CommitHashByRevision(ctx, branch.Revision())
	if err != nil || !ok {
		return err
	}

	seen := 0
	tryHashes := func(hashes []refs.CommitHash) (bool, error) {
		for _, hash := range hashes {
			pairs := index[hash]
			var containing []BranchPair
			for _, pair := range pairs {
				if pair.Local != branch {
					containing = append(containing, pair)
				}
			}
			if len(containing) == 0 {
				continue
			}
			// Sort by the matched name so the inference is
			// deterministic regardless of the index build order.
			sort.Slice(containing, func(i, j int) bool {
				return containing[i].LocalOrRemote < containing[j].LocalOrRemote
			})
			stop, err := visit(hash, containing)
			if err != nil || stop {
				return true, err
			}
		}
		return false, nil
	}

	initial, err := s.Git.LogHashes(ctx, tip, initialCommitCountForLog)
	if err != nil {
		return err
	}
	stopped, err := tryHashes(initial)
	if err != nil || stopped {
		return err
	}
	seen = len(initial)
	if seen < initialCommitCountForLog {
		return nil
	}
	all, err := s.Git.LogHashes(ctx, tip, 0)
	if err != nil {
		return err
	}
	if len(all) <= seen {
		return nil
	}
	_, err = tryHashes(all[seen:])
	return err
}

// overriddenForkPoint returns the override target when one is set and
// still applies (i.e. it remains an ancestor of the branch's tip).
func (s *State) overriddenForkPoint(ctx context.Context, branch refs.LocalBranch) (refs.CommitHash, bool, error) {
	value, ok, err := s.Git.ConfigValue(ctx, overrideForkPointToKey(branch))
	if err != nil || !ok {
		return "", false, err
	}
	if !refs.IsValidCommitHash(value) {
		return "", false, nil
	}
	to := refs.CommitHash(value)
	applies, err := s.Git.IsAncestorOrEqual(ctx, to.Revision(), branch.Revision())
	if err != nil {
		return "", false, err
	}
	if !applies {
		s.Warn(fmt.Sprintf("since branch %s is no longer a descendant of commit %s, "+
			"the fork point override to this commit no longer applies.\n"+
			"Consider running:\n  `git machete fork-point --unset-override %s`",
			cliutil.Bold(branch.String()), cliutil.Bold(to.String()), branch))
		return "", false, nil
	}
	return to, true, nil
}

// HasAnyForkPointOverrideConfig also reports overrides whose target no
// longer resolves; the deprecated whileDescendantOf key counts too.
func (s *State) HasAnyForkPointOverrideConfig(ctx context.Context, branch refs.LocalBranch) (bool, error) {
	for _, key := range []string{overrideForkPointToKey(branch), overrideForkPointWhileDescendantOfKey(branch)} {
		if _, ok, err := s.Git.ConfigValue(ctx, key); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
	}
	return false, nil
}

// ForkPoint computes the fork point of branch: the commit where its
// unique history begins. Returns the fork point plus the containing
// branch pairs that evidenced it (empty for override/fallback results).
func (s *State) ForkPoint(ctx context.Context, branch refs.LocalBranch, useOverrides bool) (refs.CommitHash, []BranchPair, error) {
	upstream, hasUpstream := s.Layout.Parent(branch)
	var upstreamHash refs.CommitHash
	var upstreamIsAncestor bool
	if hasUpstream {
		var ok bool
		var err error
		upstreamHash, ok, err = s.Git.CommitHashByRevision(ctx, upstream.Revision())
		if err != nil {
			return "", nil, err
		}
		if !ok {
			hasUpstream = false
		} else {
			upstreamIsAncestor, err = s.Git.IsAncestorOrEqual(ctx, upstream.Ref().Revision(), branch.Ref().Revision())
			if err != nil {
				return "", nil, err
			}
		}
	}

	if useOverrides {
		override, ok, err := s.overriddenForkPoint(ctx, branch)
		if err != nil {
			return "", nil, err
		}
		if ok {
			overrideAncestorOfUpstream := false
			if hasUpstream {
				overrideAncestorOfUpstream, err = s.Git.IsAncestorOrEqual(ctx, override.Revision(), upstream.Ref().Revision())
				if err != nil {
					return "", nil, err
				}
			}
			switch {
			case hasUpstream && upstreamIsAncestor && !overrideAncestorOfUpstream:
				// The branch descends from its upstream but the
				// override points outside of the upstream's history:
				// the upstream wins as the fork point.
				return upstreamHash, nil, nil
			case hasUpstream && overrideAncestorOfUpstream:
				// The override predates the actual divergence.
				base, ok, err := s.Git.MergeBase(ctx, upstream.Ref().Revision(), branch.Ref().Revision())
				if err != nil {
					return "", nil, err
				}
				if !ok {
					return "", nil, unexpectedf("no merge base of %s and %s despite a common ancestor %s",
						upstream, branch, override)
				}
				return base, nil, nil
			default:
				return override, nil, nil
			}
		}
	}

	var computed refs.CommitHash
	var containing []BranchPair
	err := s.matchLogToFilteredReflogs(ctx, branch, func(hash refs.CommitHash, pairs []BranchPair) (bool, error) {
		computed = hash
		containing = pairs
		return true, nil
	})
	if err != nil {
		return "", nil, err
	}

	if computed == "" {
		if hasUpstream && upstreamIsAncestor {
			// No reflog evidence, but the branch descends from its
			// upstream: fall back to the upstream's tip.
			return upstreamHash, nil, nil
		}
		if hasUpstream {
			base, ok, err := s.Git.MergeBase(ctx, upstream.Ref().Revision(), branch.Ref().Revision())
			if err != nil {
				return "", nil, err
			}
			if ok {
				return base, nil, nil
			}
		}
		return "", nil, &ForkPointNotFoundError{Branch: branch.String()}
	}

	computedAncestorOfUpstream := false
	upstreamAncestorOfComputed := false
	if hasUpstream {
		upstreamAncestorOfComputed, err = s.Git.IsAncestorOrEqual(ctx, upstream.Ref().Revision(), computed.Revision())
		if err != nil {
			return "", nil, err
		}
		computedAncestorOfUpstream, err = s.Git.IsAncestorOrEqual(ctx, computed.Revision(), upstream.Ref().Revision())
		if err != nil {
			return "", nil, err
		}
	}

	switch {
	case hasUpstream && upstreamIsAncestor && !upstreamAncestorOfComputed:
		// Typically the upstream tip occurs on the branch's reflog, so
		// is-ancestor(upstream, branch) should imply
		// is-ancestor(upstream, fork-point); an incomplete upstream
		// reflog can still break that.
		return upstreamHash, nil, nil
	case hasUpstream && !upstreamIsAncestor && computedAncestorOfUpstream:
		base, ok, err := s.Git.MergeBase(ctx, upstream.Ref().Revision(), branch.Ref().Revision())
		if err != nil {
			return "", nil, err
		}
		if !ok {
			return "", nil, unexpectedf("no merge base of %s and %s despite common ancestor %s",
				upstream, branch, computed)
		}
		return base, nil, nil
	}

	// Refinement: merge-base with any branch containing the fork point
	// may give a tighter (more recent) bound.
	improved := computed
	improvedContaining := containing
	for _, pair := range containing {
		base, ok, err := s.Git.MergeBase(ctx, refs.Revision(pair.LocalOrRemote), branch.Revision())
		if err != nil {
			return "", nil, err
		}
		if !ok {
			continue
		}
		isDescendant, err := s.Git.IsAncestorOrEqual(ctx, improved.Revision(), base.Revision())
		if err != nil {
			return "", nil, err
		}
		if isDescendant && base != improved {
			improved = base
			improvedContaining = []BranchPair{pair}
		}
	}
	return improved, improvedContaining, nil
}

// ForkPointOrNone is ForkPoint with inference failures flattened.
func (s *State) ForkPointOrNone(ctx context.Context, branch refs.LocalBranch, useOverrides bool) (refs.CommitHash, bool) {
	hash, _, err := s.ForkPoint(ctx, branch, useOverrides)
	if err != nil {
		return "", false
	}
	return hash, true
}

// SetForkPointOverride pins the fork point of branch to revision.
// The revision must be an ancestor of the branch's current tip.
func (s *State) SetForkPointOverride(ctx context.Context, branch refs.LocalBranch, revision refs.Revision) error {
	toHash, ok, err := s.Git.CommitHashByRevision(ctx, revision)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("cannot find revision %s", cliutil.Bold(revision.String()))
	}
	isAncestor, err := s.Git.IsAncestorOrEqual(ctx, toHash.Revision(), branch.Ref().Revision())
	if err != nil {
		return err
	}
	if !isAncestor {
		return fmt.Errorf("cannot override fork point: %s is not an ancestor of %s",
			cliutil.Bold(revision.String()), cliutil.Bold(branch.String()))
	}
	toKey := overrideForkPointToKey(branch)
	if err := s.Git.SetConfig(ctx, toKey, toHash.String()); err != nil {
		return err
	}
	// Keep the deprecated key in sync for older git-machete clients
	// that still require it for an override to apply.
	if err := s.Git.SetConfig(ctx, overrideForkPointWhileDescendantOfKey(branch), toHash.String()); err != nil {
		return err
	}
	s.Printf("Fork point for %s is overridden to %s.\n", cliutil.Bold(branch.String()), toHash)
	s.Printf("This applies as long as %s is a descendant of commit %s.\n\n", cliutil.Bold(branch.String()), toHash)
	s.Printf("This information is stored under `%s` git config key.\n\n", toKey)
	s.Printf("To unset this override, use:\n  `git machete fork-point --unset-override %s`\n", branch)
	return nil
}

// UnsetForkPointOverride removes the override of branch, including the
// deprecated whileDescendantOf key.
func (s *State) UnsetForkPointOverride(ctx context.Context, branch refs.LocalBranch) error {
	if err := s.Git.UnsetConfig(ctx, overrideForkPointToKey(branch)); err != nil {
		return err
	}
	return s.Git.UnsetConfig(ctx, overrideForkPointWhileDescendantOfKey(branch))
}

// BranchesWithOverriddenForkPoint lists managed branches carrying any
// override config.
func (s *State) BranchesWithOverriddenForkPoint(ctx context.Context) ([]refs.LocalBranch, error) {
	var result []refs.LocalBranch
	for _, branch := range s.Layout.Managed() {
		has, err := s.HasAnyForkPointOverrideConfig(ctx, branch)
		if err != nil {
			return nil, err
		}
		if has {
			result = append(result, branch)
		}
	}
	return result, nil
}

// InferUpstream walks the branch's commits through the reflog index and
// returns the first candidate branch accepted by condition.
func (s *State) InferUpstream(ctx context.Context, branch refs.LocalBranch,
	condition func(candidate refs.LocalBranch) bool) (refs.LocalBranch, bool, error) {
	var result refs.LocalBranch
	found := false
	err := s.matchLogToFilteredReflogs(ctx, branch, func(hash refs.CommitHash, pairs []BranchPair) (bool, error) {
		for _, pair := range pairs {
			if condition == nil || condition(pair.Local) {
				result = pair.Local
				found = true
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return "", false, err
	}
	return result, found, nil
}

// invalidateReflogIndex drops the per-commit index (used after
// mutations that rewrite reflogs mid-operation).
func (s *State) invalidateReflogIndex() {
	s.branchPairIdx = nil
}
