// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package git

import (
	"context"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// Remotes lists the configured remotes.
func (r *Repo) Remotes(ctx context.Context) ([]string, error) {
	if !r.remotesLoaded {
		lines, err := r.lines(ctx, "remote")
		if err != nil {
			return nil, err
		}
		r.remotes = lines
		r.remotesLoaded = true
	}
	return r.remotes, nil
}

// RemoteURL returns the fetch URL of a remote.
func (r *Repo) RemoteURL(ctx context.Context, remote string) (string, error) {
	return r.output(ctx, "remote", "get-url", "--", remote)
}

// AddRemote registers a new remote.
func (r *Repo) AddRemote(ctx context.Context, remote, url string) error {
	return r.run(ctx, nil, "remote", "add", "--", remote, url)
}

// Fetch runs git fetch for the given remote. Fetches are memoized for
// the process lifetime; a remote is only hit once per run.
func (r *Repo) Fetch(ctx context.Context, remote string) error {
	if r.fetchDone[remote] {
		return nil
	}
	if err := r.run(ctx, nil, "fetch", "--prune", "--", remote); err != nil {
		return err
	}
	r.fetchDone[remote] = true
	return nil
}

// FetchRefspec fetches a single refspec from a remote. Not memoized:
// distinct refspecs land under distinct refs.
func (r *Repo) FetchRefspec(ctx context.Context, remote, refspec string) error {
	return r.run(ctx, nil, "fetch", "--", remote, refspec)
}

// PushOptions control force semantics of Push.
type PushOptions struct {
	// ForceWithLease enables --force-with-lease --force-if-includes,
	// needed whenever the push rewrites remote history.
	ForceWithLease bool
}

// Push pushes branch to remote, setting upstream tracking data.
func (r *Repo) Push(ctx context.Context, remote string, branch refs.LocalBranch, opts PushOptions) error {
	args := []string{"push", "--set-upstream"}
	if opts.ForceWithLease {
		// --force-if-includes ensures the remote tip was integrated
		// locally before the lease is considered valid.
		args = append(args, "--force-with-lease", "--force-if-includes")
	}
	args = append(args, "--", remote, branch.String())
	return r.run(ctx, nil, args...)
}

// PushRefspec pushes an explicit refspec to a remote.
func (r *Repo) PushRefspec(ctx context.Context, remote, refspec string) error {
	return r.run(ctx, nil, "push", "--", remote, refspec)
}

// DeleteRemoteBranch removes a branch from a remote.
func (r *Repo) DeleteRemoteBranch(ctx context.Context, remote string, branch refs.LocalBranch) error {
	return r.run(ctx, nil, "push", "--delete", "--", remote, branch.String())
}

// PullFFOnly fast-forward pulls the given remote branch into the
// current branch.
func (r *Repo) PullFFOnly(ctx context.Context, remote string, remoteBranch refs.RemoteBranch) error {
	_, branch := remoteBranch.Split()
	if err := r.run(ctx, nil, "pull", "--ff-only", "--", remote, branch); err != nil {
		return err
	}
	return nil
}

// RemoteBranchExists asks the remote itself (ls-remote) whether it
// carries a branch of the given name; the local remote-tracking refs
// may be stale.
func (r *Repo) RemoteBranchExists(ctx context.Context, remote string, branch refs.LocalBranch) (bool, error) {
	out, err := r.output(ctx, "ls-remote", "--heads", remote, branch.String())
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}
