// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package git

import (
	"context"
	"strconv"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// CommitHashByRevision resolves a revision to a full commit hash.
func (r *Repo) CommitHashByRevision(ctx context.Context, revision refs.Revision) (refs.CommitHash, bool, error) {
	if hash, ok := r.commitHashes[revision]; ok {
		return hash, true, nil
	}
	out, err := r.output(ctx, "rev-parse", "--verify", "--quiet", revision.String()+"^{commit}")
	if err != nil || out == "" {
		return "", false, nil
	}
	hash := refs.CommitHash(out)
	r.commitHashes[revision] = hash
	return hash, true, nil
}

// TreeHashByRevision resolves a revision to its tree hash.
func (r *Repo) TreeHashByRevision(ctx context.Context, revision refs.Revision) (refs.TreeHash, bool, error) {
	if hash, ok := r.treeHashes[revision]; ok {
		return hash, true, nil
	}
	out, err := r.output(ctx, "rev-parse", "--verify", "--quiet", revision.String()+"^{tree}")
	if err != nil || out == "" {
		return "", false, nil
	}
	hash := refs.TreeHash(out)
	r.treeHashes[revision] = hash
	return hash, true, nil
}

// ShortCommitHashByRevision abbreviates a revision.
func (r *Repo) ShortCommitHashByRevision(ctx context.Context, revision refs.Revision) (refs.ShortCommitHash, error) {
	out, err := r.output(ctx, "rev-parse", "--short", revision.String())
	if err != nil {
		return "", err
	}
	return refs.ShortCommitHash(out), nil
}

// CommitterTimestampByRevision returns the committer unix timestamp of
// the given revision, or 0 when the revision does not resolve.
func (r *Repo) CommitterTimestampByRevision(ctx context.Context, revision refs.Revision) (int64, error) {
	if ts, ok := r.committerTS[revision]; ok {
		return ts, nil
	}
	out, err := r.output(ctx, "log", "-1", "--format=%ct", revision.String())
	if err != nil {
		return 0, nil
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return 0, nil
	}
	r.committerTS[revision] = ts
	return ts, nil
}

// IsAncestorOrEqual reports whether earlier is an ancestor of (or equal
// to) later.
func (r *Repo) IsAncestorOrEqual(ctx context.Context, earlier, later refs.Revision) (bool, error) {
	key := [2]string{earlier.String(), later.String()}
	if result, ok := r.ancestry[key]; ok {
		return result, nil
	}
	result, err := r.ok(ctx, "merge-base", "--is-ancestor", earlier.String(), later.String())
	if err != nil {
		return false, err
	}
	r.ancestry[key] = result
	return result, nil
}

// MergeBase returns the merge base of the two revisions, if one exists.
func (r *Repo) MergeBase(ctx context.Context, a, b refs.Revision) (refs.CommitHash, bool, error) {
	hashA, okA, err := r.CommitHashByRevision(ctx, a)
	if err != nil || !okA {
		return "", false, err
	}
	hashB, okB, err := r.CommitHashByRevision(ctx, b)
	if err != nil || !okB {
		return "", false, err
	}
	key := [2]refs.CommitHash{hashA, hashB}
	if hashB < hashA {
		key = [2]refs.CommitHash{hashB, hashA}
	}
	if base, ok := r.mergeBases[key]; ok {
		return base, base != "", nil
	}
	out, err := r.output(ctx, "merge-base", hashA.String(), hashB.String())
	if err != nil {
		r.mergeBases[key] = ""
		return "", false, nil
	}
	base := refs.CommitHash(out)
	r.mergeBases[key] = base
	return base, true, nil
}

// CommitsBetween lists commits reachable from latestInclusive but not
// from earliestExclusive, oldest first.
func (r *Repo) CommitsBetween(ctx context.Context, earliestExclusive, latestInclusive refs.Revision) ([]Commit, error) {
	lines, err := r.lines(ctx, "log", "--format=%H:%h:%s", "--reverse",
		"^"+earliestExclusive.String(), latestInclusive.String(), "--")
	if err != nil {
		return nil, err
	}
	commits := make([]Commit, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}
		commits = append(commits, Commit{
			Hash:      refs.CommitHash(parts[0]),
			ShortHash: refs.ShortCommitHash(parts[1]),
			Subject:   parts[2],
		})
	}
	return commits, nil
}

// LogHashes lists commit hashes reachable from tip, newest first,
// bounded by maxCount (0 for unbounded). The fork-point engine calls
// this twice, first with a small count: walking the entire history of a
// long-lived trunk is almost never needed.
func (r *Repo) LogHashes(ctx context.Context, tip refs.CommitHash, maxCount int) ([]refs.CommitHash, error) {
	args := []string{"log", "--format=%H"}
	if maxCount > 0 {
		args = append(args, "-"+strconv.Itoa(maxCount))
	}
	args = append(args, tip.String(), "--")
	lines, err := r.lines(ctx, args...)
	if err != nil {
		return nil, err
	}
	hashes := make([]refs.CommitHash, 0, len(lines))
	for _, line := range lines {
		hashes = append(hashes, refs.CommitHash(strings.TrimSpace(line)))
	}
	return hashes, nil
}

// IsEquivalentTreeReachable determines whether any commit reachable
// from reachableFrom but not from equivalentTo carries a tree identical
// to equivalentTo's, indicating a rebase or squash merge.
func (r *Repo) IsEquivalentTreeReachable(ctx context.Context, equivalentTo, reachableFrom refs.Revision) (bool, error) {
	equivalentToHash, ok, err := r.CommitHashByRevision(ctx, equivalentTo)
	if err != nil || !ok {
		return false, err
	}
	reachableFromHash, ok, err := r.CommitHashByRevision(ctx, reachableFrom)
	if err != nil || !ok {
		return false, err
	}
	if equivalentToHash == reachableFromHash {
		return true, nil
	}
	key := [2]refs.CommitHash{equivalentToHash, reachableFromHash}
	if result, ok := r.equivalentTree[key]; ok {
		return result, nil
	}

	treeHash, ok, err := r.TreeHashByRevision(ctx, equivalentToHash.Revision())
	if err != nil || !ok {
		return false, err
	}
	lines, err := r.lines(ctx, "log", "--format=%T",
		"^"+equivalentToHash.String(), reachableFromHash.String())
	if err != nil {
		return false, err
	}
	result := false
	for _, line := range lines {
		if refs.TreeHash(strings.TrimSpace(line)) == treeHash {
			result = true
			break
		}
	}
	r.equivalentTree[key] = result
	return result, nil
}

// MaxCommitsForSquashMergeDetection bounds the exact squash-merge
// detection: only this many most recent commits on the upstream side
// are patch-id'd.
const MaxCommitsForSquashMergeDetection = 1000

// IsEquivalentPatchReachable determines whether the diff of
// equivalentTo against the merge base has the same patch-id as any of
// the recent commits reachable from reachableFrom but not from the
// merge base.
func (r *Repo) IsEquivalentPatchReachable(ctx context.Context, equivalentTo, reachableFrom refs.Revision) (bool, error) {
	equivalentToHash, ok, err := r.CommitHashByRevision(ctx, equivalentTo)
	if err != nil || !ok {
		return false, err
	}
	reachableFromHash, ok, err := r.CommitHashByRevision(ctx, reachableFrom)
	if err != nil || !ok {
		return false, err
	}
	if equivalentToHash == reachableFromHash {
		return true, nil
	}
	key := [2]refs.CommitHash{equivalentToHash, reachableFromHash}
	if result, ok := r.equivalentPatch[key]; ok {
		return result, nil
	}

	commonAncestor, ok, err := r.MergeBase(ctx, reachableFromHash.Revision(), equivalentToHash.Revision())
	if err != nil || !ok {
		return false, err
	}

	changes, err := r.output(ctx, "diff", commonAncestor.String(), equivalentToHash.String())
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(changes) == "" {
		// Empty changeset means the branches are identical.
		r.equivalentPatch[key] = true
		return true, nil
	}

	patchID, ok, err := r.patchIDForDiff(ctx, changes)
	if err != nil || !ok {
		return false, err
	}

	patches, err := r.output(ctx, "log", "--patch",
		"^"+commonAncestor.String(), reachableFromHash.String(),
		"-"+strconv.Itoa(MaxCommitsForSquashMergeDetection), "--")
	if err != nil {
		return false, err
	}
	upstreamPatchIDs, err := r.patchIDsForLog(ctx, patches)
	if err != nil {
		return false, err
	}

	result := false
	for _, id := range upstreamPatchIDs {
		if id == patchID {
			result = true
			break
		}
	}
	r.equivalentPatch[key] = result
	return result, nil
}

func (r *Repo) patchIDForDiff(ctx context.Context, diff string) (refs.PatchID, bool, error) {
	result, err := r.executor.RunInput(ctx, r.dir, diff, "patch-id")
	if err != nil {
		return "", false, err
	}
	// patch-id output is "<patch-id> <commit-hash>"; only the id matters.
	for _, line := range strings.Split(result.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return refs.PatchID(fields[0]), true, nil
		}
	}
	return "", false, nil
}

func (r *Repo) patchIDsForLog(ctx context.Context, patches string) ([]refs.PatchID, error) {
	result, err := r.executor.RunInput(ctx, r.dir, patches, "patch-id")
	if err != nil {
		return nil, err
	}
	var ids []refs.PatchID
	for _, line := range strings.Split(result.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			ids = append(ids, refs.PatchID(fields[0]))
		}
	}
	return ids, nil
}

// CommitMessageByRevision returns the full (raw body) commit message.
func (r *Repo) CommitMessageByRevision(ctx context.Context, revision refs.Revision) (string, error) {
	return r.output(ctx, "log", "-1", "--format=%B", revision.String())
}
