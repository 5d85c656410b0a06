// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"

	"github.com/gizzahub/gzh-cli-machete/pkg/git"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// Git is the gateway interface the engine depends on; *git.Repo is the
// production implementation. Tests substitute an in-memory fake.
type Git interface {
	// repository info
	RootDir(ctx context.Context) (string, error)
	GitDir(ctx context.Context) (string, error)
	MainGitDir(ctx context.Context) (string, error)
	InProgressOperationOrNone(ctx context.Context) (git.InProgressOperation, error)
	CurrentBranch(ctx context.Context) (refs.LocalBranch, error)
	CurrentBranchOrNone(ctx context.Context) (refs.LocalBranch, bool)
	CurrentlyRebasedBranch(ctx context.Context) (refs.LocalBranch, bool)
	CurrentlyBisectedBranch(ctx context.Context) (refs.LocalBranch, bool)

	// branches and counterparts
	LocalBranches(ctx context.Context) ([]refs.LocalBranch, error)
	RemoteBranches(ctx context.Context) ([]refs.RemoteBranch, error)
	HasLocalBranch(ctx context.Context, branch refs.LocalBranch) (bool, error)
	StrictCounterpart(ctx context.Context, branch refs.LocalBranch) (refs.RemoteBranch, bool, error)
	CombinedCounterpart(ctx context.Context, branch refs.LocalBranch) (refs.RemoteBranch, bool, error)
	CombinedRemote(ctx context.Context, branch refs.LocalBranch) (string, bool, error)
	RemotesContaining(ctx context.Context, branch refs.LocalBranch) ([]string, error)
	IsRemovedFromRemote(ctx context.Context, branch refs.LocalBranch) (bool, error)

	// history
	CommitHashByRevision(ctx context.Context, revision refs.Revision) (refs.CommitHash, bool, error)
	TreeHashByRevision(ctx context.Context, revision refs.Revision) (refs.TreeHash, bool, error)
	ShortCommitHashByRevision(ctx context.Context, revision refs.Revision) (refs.ShortCommitHash, error)
	CommitterTimestampByRevision(ctx context.Context, revision refs.Revision) (int64, error)
	IsAncestorOrEqual(ctx context.Context, earlier, later refs.Revision) (bool, error)
	MergeBase(ctx context.Context, a, b refs.Revision) (refs.CommitHash, bool, error)
	CommitsBetween(ctx context.Context, earliestExclusive, latestInclusive refs.Revision) ([]git.Commit, error)
	CommitMessageByRevision(ctx context.Context, revision refs.Revision) (string, error)
	LogHashes(ctx context.Context, tip refs.CommitHash, maxCount int) ([]refs.CommitHash, error)
	IsEquivalentTreeReachable(ctx context.Context, equivalentTo, reachableFrom refs.Revision) (bool, error)
	IsEquivalentPatchReachable(ctx context.Context, equivalentTo, reachableFrom refs.Revision) (bool, error)

	// reflogs
	Reflog(ctx context.Context, ref refs.Revision) ([]git.ReflogEntry, error)
	LatestCheckoutTimestamps(ctx context.Context) (map[string]int64, error)
	UnixTimestampFromTimespec(ctx context.Context, spec string) (int64, error)

	// remotes
	Remotes(ctx context.Context) ([]string, error)
	RemoteURL(ctx context.Context, remote string) (string, error)
	AddRemote(ctx context.Context, remote, url string) error
	Fetch(ctx context.Context, remote string) error
	FetchRefspec(ctx context.Context, remote, refspec string) error
	Push(ctx context.Context, remote string, branch refs.LocalBranch, opts git.PushOptions) error
	PushRefspec(ctx context.Context, remote, refspec string) error
	DeleteRemoteBranch(ctx context.Context, remote string, branch refs.LocalBranch) error
	PullFFOnly(ctx context.Context, remote string, remoteBranch refs.RemoteBranch) error
	RemoteBranchExists(ctx context.Context, remote string, branch refs.LocalBranch) (bool, error)

	// config
	ConfigValue(ctx context.Context, key string) (string, bool, error)
	BoolConfig(ctx context.Context, key string, defaultValue bool) (bool, error)
	SetConfig(ctx context.Context, key, value string) error
	UnsetConfig(ctx context.Context, key string) error

	// mutations
	Checkout(ctx context.Context, branch refs.LocalBranch) error
	CreateBranch(ctx context.Context, branch refs.LocalBranch, revision refs.Revision, switchHead bool) error
	CreateBranchFromRemote(ctx context.Context, branch refs.LocalBranch, remoteBranch refs.RemoteBranch) error
	DeleteBranch(ctx context.Context, branch refs.LocalBranch, force bool) error
	ResetKeep(ctx context.Context, revision refs.Revision) error
	Rebase(ctx context.Context, onto, fromExclusive refs.Revision, branch refs.LocalBranch, opts git.RebaseOptions) error
	Merge(ctx context.Context, branch refs.LocalBranch, opts git.MergeOptions) error
	MergeFFOnly(ctx context.Context, branch refs.LocalBranch) error
	CommitTree(ctx context.Context, tree refs.TreeHash, parent refs.CommitHash, message string, env []string) (refs.CommitHash, error)
	UpdateRef(ctx context.Context, ref refs.Revision, newValue refs.CommitHash, subject string) error
	AuthorIdentityByRevision(ctx context.Context, revision refs.Revision) (git.AuthorIdentity, error)
	DisplayDiff(ctx context.Context, forkPoint refs.Revision, branch refs.LocalBranch, extraArgs ...string) error
	DisplayLog(ctx context.Context, branch refs.LocalBranch, forkPoint refs.Revision, extraArgs ...string) error

	// hooks and editor
	HookPath(ctx context.Context, name string) (string, error)
	RunHook(ctx context.Context, hookPath, dir string, env []string, args ...string) (int, error)
	RunHookCaptured(ctx context.Context, hookPath, dir string, env []string, args ...string) (int, string, error)
	RunEditor(ctx context.Context, path string) error

	// cache control
	Flush()
}
