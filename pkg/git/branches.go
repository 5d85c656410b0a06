// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package git

import (
	"context"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

func (r *Repo) loadBranches(ctx context.Context) error {
	if r.branchesLoaded {
		return nil
	}

	// Local branches together with their configured upstreams.
	// %(upstream:track) renders as "[gone]" when tracking data points
	// to a branch that no longer exists on the remote.
	lines, err := r.lines(ctx, "for-each-ref",
		"--format=%(refname)\t%(upstream)\t%(upstream:track)\t%(objectname)\t%(committerdate:unix)",
		"refs/heads")
	if err != nil {
		return err
	}
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		if len(fields) < 5 {
			continue
		}
		branch := refs.LocalRef(fields[0]).Branch()
		r.localBranches = append(r.localBranches, branch)
		if upstream := fields[1]; strings.HasPrefix(upstream, "refs/remotes/") {
			if fields[2] == "[gone]" {
				r.removedFromRemote[branch] = true
			} else {
				r.counterparts[branch] = refs.RemoteRef(upstream).Branch()
			}
		}
		r.commitHashes[branch.Revision()] = refs.CommitHash(fields[3])
		if ts, ok := parseUnix(fields[4]); ok {
			r.committerTS[branch.Revision()] = ts
		}
	}

	lines, err = r.lines(ctx, "for-each-ref",
		"--format=%(refname)\t%(objectname)\t%(committerdate:unix)",
		"refs/remotes")
	if err != nil {
		return err
	}
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		branch := refs.RemoteRef(fields[0]).Branch()
		if _, b := branch.Split(); b == "HEAD" {
			continue
		}
		r.remoteBranches = append(r.remoteBranches, branch)
		r.commitHashes[branch.Revision()] = refs.CommitHash(fields[1])
		if ts, ok := parseUnix(fields[2]); ok {
			r.committerTS[branch.Revision()] = ts
		}
	}

	r.branchesLoaded = true
	return nil
}

func parseUnix(s string) (int64, bool) {
	var ts int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		ts = ts*10 + int64(c-'0')
	}
	return ts, s != ""
}

// LocalBranches lists all local branches.
func (r *Repo) LocalBranches(ctx context.Context) ([]refs.LocalBranch, error) {
	if err := r.loadBranches(ctx); err != nil {
		return nil, err
	}
	return r.localBranches, nil
}

// RemoteBranches lists all remote-tracking branches (HEAD pointers
// excluded).
func (r *Repo) RemoteBranches(ctx context.Context) ([]refs.RemoteBranch, error) {
	if err := r.loadBranches(ctx); err != nil {
		return nil, err
	}
	return r.remoteBranches, nil
}

// HasLocalBranch reports whether branch exists locally.
func (r *Repo) HasLocalBranch(ctx context.Context, branch refs.LocalBranch) (bool, error) {
	locals, err := r.LocalBranches(ctx)
	if err != nil {
		return false, err
	}
	for _, b := range locals {
		if b == branch {
			return true, nil
		}
	}
	return false, nil
}

// StrictCounterpart returns the branch's configured remote-tracking
// counterpart (branch.<b>.remote + branch.<b>.merge), if any.
func (r *Repo) StrictCounterpart(ctx context.Context, branch refs.LocalBranch) (refs.RemoteBranch, bool, error) {
	if err := r.loadBranches(ctx); err != nil {
		return "", false, err
	}
	counterpart, ok := r.counterparts[branch]
	return counterpart, ok, nil
}

// RemotesContaining lists the remotes that carry a branch of the given
// short name.
func (r *Repo) RemotesContaining(ctx context.Context, branch refs.LocalBranch) ([]string, error) {
	remoteBranches, err := r.RemoteBranches(ctx)
	if err != nil {
		return nil, err
	}
	remotes, err := r.Remotes(ctx)
	if err != nil {
		return nil, err
	}
	present := map[refs.RemoteBranch]bool{}
	for _, rb := range remoteBranches {
		present[rb] = true
	}
	var result []string
	for _, remote := range remotes {
		if present[refs.RemoteBranch(remote+"/"+branch.String())] {
			result = append(result, remote)
		}
	}
	return result, nil
}

// InferredCounterpart returns <remote>/<branch> when exactly one remote
// carries a branch of the same short name.
func (r *Repo) InferredCounterpart(ctx context.Context, branch refs.LocalBranch) (refs.RemoteBranch, bool, error) {
	remotes, err := r.RemotesContaining(ctx, branch)
	if err != nil {
		return "", false, err
	}
	if len(remotes) != 1 {
		return "", false, nil
	}
	return refs.RemoteBranch(remotes[0] + "/" + branch.String()), true, nil
}

// CombinedCounterpart returns the strict counterpart when tracking data
// exists, otherwise the inferred one. Many people don't use push
// --set-upstream, so the inference keeps them covered.
func (r *Repo) CombinedCounterpart(ctx context.Context, branch refs.LocalBranch) (refs.RemoteBranch, bool, error) {
	counterpart, ok, err := r.StrictCounterpart(ctx, branch)
	if err != nil || ok {
		return counterpart, ok, err
	}
	return r.InferredCounterpart(ctx, branch)
}

// CombinedRemote returns the remote of the combined counterpart.
func (r *Repo) CombinedRemote(ctx context.Context, branch refs.LocalBranch) (string, bool, error) {
	counterpart, ok, err := r.CombinedCounterpart(ctx, branch)
	if err != nil || !ok {
		return "", false, err
	}
	remote, _ := counterpart.Split()
	return remote, true, nil
}

// IsRemovedFromRemote reports whether branch has tracking data
// configured but its remote counterpart no longer exists.
func (r *Repo) IsRemovedFromRemote(ctx context.Context, branch refs.LocalBranch) (bool, error) {
	if err := r.loadBranches(ctx); err != nil {
		return false, err
	}
	return r.removedFromRemote[branch], nil
}
