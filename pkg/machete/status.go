// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// EdgeStatus classifies the edge between a branch and its layout parent.
type EdgeStatus int

const (
	// EdgeInSync: the parent is an ancestor and the fork point agrees
	// with the parent tip (or an override is in effect).
	EdgeInSync EdgeStatus = iota

	// EdgeInSyncButForkPointOff: the parent is an ancestor but the
	// inferred fork point is not the parent's tip.
	EdgeInSyncButForkPointOff

	// EdgeOutOfSync: the parent is not an ancestor of the branch.
	EdgeOutOfSync

	// EdgeMergedToParent: the branch is merged into its parent.
	EdgeMergedToParent
)

func (e EdgeStatus) String() string {
	switch e {
	case EdgeInSync:
		return "in sync"
	case EdgeInSyncButForkPointOff:
		return "in sync but fork point off"
	case EdgeOutOfSync:
		return "out of sync"
	case EdgeMergedToParent:
		return "merged to parent"
	}
	return "unknown"
}

// RemoteSyncStatus classifies a branch against its remote counterpart.
type RemoteSyncStatus int

const (
	RemoteNoRemotes RemoteSyncStatus = iota
	RemoteUntracked
	RemoteInSync
	RemoteBehind
	RemoteAhead
	RemoteDivergedAndNewer
	RemoteDivergedAndOlder
)

// EdgeStatusFor computes the parent-edge status of a non-root branch.
// Fork-point overrides are always honored, even when invoked from
// discover.
func (s *State) EdgeStatusFor(ctx context.Context, branch refs.LocalBranch, mode SquashMergeDetection) (EdgeStatus, error) {
	parent, ok := s.Layout.Parent(branch)
	if !ok {
		return EdgeInSync, unexpectedf("branch %s has no parent; edge status is undefined for roots", branch)
	}

	merged, err := s.IsMergedToParent(ctx, branch, mode)
	if err != nil {
		return EdgeInSync, err
	}
	if merged {
		return EdgeMergedToParent, nil
	}

	parentIsAncestor, err := s.Git.IsAncestorOrEqual(ctx, parent.Revision(), branch.Revision())
	if err != nil {
		return EdgeInSync, err
	}
	if !parentIsAncestor {
		return EdgeOutOfSync, nil
	}

	if _, overridden, err := s.overriddenForkPoint(ctx, branch); err != nil {
		return EdgeInSync, err
	} else if overridden {
		return EdgeInSync, nil
	}

	parentHash, _, err := s.Git.CommitHashByRevision(ctx, parent.Revision())
	if err != nil {
		return EdgeInSync, err
	}
	if forkPoint, ok := s.ForkPointOrNone(ctx, branch, true); ok && forkPoint == parentHash {
		return EdgeInSync, nil
	}
	return EdgeInSyncButForkPointOff, nil
}

// RelationToRemoteCounterpart classifies branch against remoteBranch.
func (s *State) RelationToRemoteCounterpart(ctx context.Context, branch refs.LocalBranch,
	remoteBranch refs.RemoteBranch) (RemoteSyncStatus, error) {
	branchIsAncestor, err := s.Git.IsAncestorOrEqual(ctx, branch.Revision(), remoteBranch.Revision())
	if err != nil {
		return RemoteInSync, err
	}
	remoteIsAncestor, err := s.Git.IsAncestorOrEqual(ctx, remoteBranch.Revision(), branch.Revision())
	if err != nil {
		return RemoteInSync, err
	}
	switch {
	case branchIsAncestor && remoteIsAncestor:
		return RemoteInSync, nil
	case branchIsAncestor:
		return RemoteBehind, nil
	case remoteIsAncestor:
		return RemoteAhead, nil
	}
	branchTS, err := s.Git.CommitterTimestampByRevision(ctx, branch.Revision())
	if err != nil {
		return RemoteInSync, err
	}
	remoteTS, err := s.Git.CommitterTimestampByRevision(ctx, remoteBranch.Revision())
	if err != nil {
		return RemoteInSync, err
	}
	if branchTS < remoteTS {
		return RemoteDivergedAndOlder, nil
	}
	return RemoteDivergedAndNewer, nil
}

// CombinedRemoteSyncStatus computes the remote-sync status of branch
// against its combined (strict or inferred) counterpart, together with
// the counterpart's remote when one exists.
func (s *State) CombinedRemoteSyncStatus(ctx context.Context, branch refs.LocalBranch) (RemoteSyncStatus, string, error) {
	remotes, err := s.Git.Remotes(ctx)
	if err != nil {
		return RemoteNoRemotes, "", err
	}
	if len(remotes) == 0 {
		return RemoteNoRemotes, "", nil
	}
	remoteBranch, ok, err := s.Git.CombinedCounterpart(ctx, branch)
	if err != nil {
		return RemoteNoRemotes, "", err
	}
	if !ok {
		return RemoteUntracked, "", nil
	}
	status, err := s.RelationToRemoteCounterpart(ctx, branch, remoteBranch)
	if err != nil {
		return RemoteNoRemotes, "", err
	}
	remote, _ := remoteBranch.Split()
	return status, remote, nil
}
