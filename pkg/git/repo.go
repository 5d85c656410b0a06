// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/internal/gitcmd"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// ReflogEntry is a single reflog line: the new commit hash plus the
// reflog subject.
type ReflogEntry struct {
	Hash    refs.CommitHash
	Subject string
}

// Commit is one entry of a commit range listing.
type Commit struct {
	Hash      refs.CommitHash
	ShortHash refs.ShortCommitHash
	Subject   string
}

// Repo is the gateway to a single git repository.
//
// All query methods cache their results; mutations call Flush so
// subsequent queries observe the new state.
type Repo struct {
	executor *gitcmd.Executor
	dir      string

	rootDir    string
	gitDir     string
	mainGitDir string

	// caches, all nil/empty until first use and dropped on Flush
	// (except fetchDone, which lasts for the Repo's lifetime)
	localBranches      []refs.LocalBranch
	remoteBranches     []refs.RemoteBranch
	branchesLoaded     bool
	counterparts       map[refs.LocalBranch]refs.RemoteBranch
	removedFromRemote  map[refs.LocalBranch]bool
	commitHashes       map[refs.Revision]refs.CommitHash
	treeHashes         map[refs.Revision]refs.TreeHash
	committerTS        map[refs.Revision]int64
	reflogs            map[string][]ReflogEntry
	configEntries      map[string]string
	configLoaded       bool
	remotes            []string
	remotesLoaded      bool
	mergeBases         map[[2]refs.CommitHash]refs.CommitHash
	ancestry           map[[2]string]bool
	equivalentTree     map[[2]refs.CommitHash]bool
	equivalentPatch    map[[2]refs.CommitHash]bool
	fetchDone          map[string]bool
	checkoutTimestamps map[string]int64
}

// Option configures a Repo.
type Option func(*Repo)

// WithExecutor substitutes a custom command executor.
func WithExecutor(executor *gitcmd.Executor) Option {
	return func(r *Repo) {
		r.executor = executor
	}
}

// NewRepo creates a gateway rooted at dir (any directory inside the
// working tree).
func NewRepo(dir string, opts ...Option) *Repo {
	r := &Repo{
		executor: gitcmd.NewExecutor(),
		dir:      dir,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resetCaches()
	return r
}

func (r *Repo) resetCaches() {
	r.localBranches = nil
	r.remoteBranches = nil
	r.branchesLoaded = false
	r.counterparts = map[refs.LocalBranch]refs.RemoteBranch{}
	r.removedFromRemote = map[refs.LocalBranch]bool{}
	r.commitHashes = map[refs.Revision]refs.CommitHash{}
	r.treeHashes = map[refs.Revision]refs.TreeHash{}
	r.committerTS = map[refs.Revision]int64{}
	r.reflogs = map[string][]ReflogEntry{}
	r.configEntries = map[string]string{}
	r.configLoaded = false
	r.remotes = nil
	r.remotesLoaded = false
	r.mergeBases = map[[2]refs.CommitHash]refs.CommitHash{}
	r.ancestry = map[[2]string]bool{}
	r.equivalentTree = map[[2]refs.CommitHash]bool{}
	r.equivalentPatch = map[[2]refs.CommitHash]bool{}
	r.checkoutTimestamps = nil
	// Fetches stay memoized across mutations; re-fetching the same
	// remote within one run would only waste network round trips.
	if r.fetchDone == nil {
		r.fetchDone = map[string]bool{}
	}
}

// Flush drops all caches except the fetch memo. Called internally after
// every mutation.
func (r *Repo) Flush() {
	r.resetCaches()
}

func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	return r.executor.Output(ctx, r.dir, args...)
}

func (r *Repo) lines(ctx context.Context, args ...string) ([]string, error) {
	return r.executor.Lines(ctx, r.dir, args...)
}

func (r *Repo) ok(ctx context.Context, args ...string) (bool, error) {
	return r.executor.OK(ctx, r.dir, args...)
}

// run executes a mutating git command and flushes the caches.
func (r *Repo) run(ctx context.Context, extraEnv []string, args ...string) error {
	result, err := r.executor.Run(ctx, r.dir, extraEnv, args...)
	if err != nil {
		return err
	}
	r.Flush()
	if result.ExitCode != 0 {
		return &gitcmd.GitError{
			Command:  "git " + strings.Join(args, " "),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return nil
}

// RootDir returns the top level of the working tree.
func (r *Repo) RootDir(ctx context.Context) (string, error) {
	if r.rootDir == "" {
		out, err := r.output(ctx, "rev-parse", "--show-toplevel")
		if err != nil {
			return "", err
		}
		r.rootDir = out
	}
	return r.rootDir, nil
}

// GitDir returns the (possibly per-worktree) git directory.
func (r *Repo) GitDir(ctx context.Context) (string, error) {
	if r.gitDir == "" {
		out, err := r.output(ctx, "rev-parse", "--absolute-git-dir")
		if err != nil {
			return "", err
		}
		r.gitDir = out
	}
	return r.gitDir, nil
}

// MainGitDir returns the top-level git directory, which differs from
// GitDir inside a linked worktree (where GitDir points under
// .git/worktrees/<name>).
func (r *Repo) MainGitDir(ctx context.Context) (string, error) {
	if r.mainGitDir == "" {
		gitDir, err := r.GitDir(ctx)
		if err != nil {
			return "", err
		}
		sep := string(filepath.Separator) + filepath.Join("worktrees") + string(filepath.Separator)
		if idx := strings.Index(gitDir, sep); idx >= 0 {
			r.mainGitDir = gitDir[:idx]
		} else {
			r.mainGitDir = gitDir
		}
	}
	return r.mainGitDir, nil
}

// GitSubpath joins path elements onto the per-worktree git directory.
func (r *Repo) GitSubpath(ctx context.Context, elem ...string) (string, error) {
	gitDir, err := r.GitDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{gitDir}, elem...)...), nil
}

// Version returns the git version string, e.g. "2.40.0".
func (r *Repo) Version(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "version")
	if err != nil {
		return "", err
	}
	parts := strings.Fields(out)
	if len(parts) >= 3 {
		return parts[2], nil
	}
	return out, nil
}

// CurrentBranch returns the currently checked-out branch.
// Fails on a detached HEAD.
func (r *Repo) CurrentBranch(ctx context.Context) (refs.LocalBranch, error) {
	out, err := r.output(ctx, "symbolic-ref", "--quiet", "HEAD")
	if err != nil {
		return "", fmt.Errorf("HEAD is detached; checkout a branch first")
	}
	return refs.LocalRef(out).Branch(), nil
}

// CurrentBranchOrNone returns the checked-out branch, or "" with false
// on a detached HEAD.
func (r *Repo) CurrentBranchOrNone(ctx context.Context) (refs.LocalBranch, bool) {
	out, err := r.output(ctx, "symbolic-ref", "--quiet", "HEAD")
	if err != nil {
		return "", false
	}
	return refs.LocalRef(out).Branch(), true
}
