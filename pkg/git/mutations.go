// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package git

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// Checkout switches the working tree to branch.
func (r *Repo) Checkout(ctx context.Context, branch refs.LocalBranch) error {
	return r.run(ctx, nil, "checkout", "--quiet", branch.String(), "--")
}

// CheckoutRevision checks out an arbitrary revision (detaching HEAD).
func (r *Repo) CheckoutRevision(ctx context.Context, revision refs.Revision) error {
	return r.run(ctx, nil, "checkout", "--quiet", revision.String(), "--")
}

// CreateBranch creates branch at revision; with switchHead the working
// tree moves onto it, otherwise only the ref is created.
func (r *Repo) CreateBranch(ctx context.Context, branch refs.LocalBranch, revision refs.Revision, switchHead bool) error {
	if switchHead {
		return r.run(ctx, nil, "checkout", "-b", branch.String(), revision.String())
	}
	return r.run(ctx, nil, "branch", branch.String(), revision.String())
}

// CreateBranchFromRemote creates branch tracking the given remote
// branch and checks it out.
func (r *Repo) CreateBranchFromRemote(ctx context.Context, branch refs.LocalBranch, remoteBranch refs.RemoteBranch) error {
	return r.run(ctx, nil, "checkout", "-b", branch.String(), "--track", remoteBranch.String())
}

// DeleteBranch removes a local branch; force uses -D.
func (r *Repo) DeleteBranch(ctx context.Context, branch refs.LocalBranch, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	return r.run(ctx, nil, "branch", flag, branch.String())
}

// ResetKeep resets the current branch to revision, keeping local
// changes that don't conflict.
func (r *Repo) ResetKeep(ctx context.Context, revision refs.Revision) error {
	return r.run(ctx, nil, "reset", "--keep", revision.String())
}

// RebaseOptions control how Rebase drives git rebase.
type RebaseOptions struct {
	// NoInteractive suppresses the default --interactive mode.
	NoInteractive bool

	// ExtraOpts are passed through verbatim (GIT_MACHETE_REBASE_OPTS).
	ExtraOpts []string
}

var faultyAuthorScriptLineRe = regexp.MustCompile(`^[A-Z0-9_]+='[^']*$`)

// Rebase reapplies the commits of branch since fromExclusive onto onto.
// The terminal stays attached so interactive rebases work. Regardless
// of the outcome, the rebase-merge author-script is patched up: git
// versions used to truncate the closing quote, which breaks continuing
// the rebase with a different git version.
func (r *Repo) Rebase(ctx context.Context, onto refs.Revision, fromExclusive refs.Revision,
	branch refs.LocalBranch, opts RebaseOptions) error {
	args := []string{"rebase"}
	args = append(args, opts.ExtraOpts...)
	if !opts.NoInteractive {
		args = append(args, "--interactive")
	}
	args = append(args, "--empty=drop", "--onto", onto.String(), fromExclusive.String(), branch.String())

	exitCode, runErr := r.executor.RunAttached(ctx, r.dir, nil, args...)
	r.Flush()

	// Only <git-dir>/rebase-merge/author-script (interactive rebases)
	// is affected, not rebase-apply.
	if authorScript, err := r.GitSubpath(ctx, "rebase-merge", "author-script"); err == nil {
		r.fixAuthorScript(authorScript)
	}

	if runErr != nil {
		return runErr
	}
	if exitCode != 0 {
		return fmt.Errorf("git rebase of %s exited with %d; resolve the conflicts and continue the rebase", branch, exitCode)
	}
	return nil
}

func (r *Repo) fixAuthorScript(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	lines := strings.Split(string(data), "\n")
	changed := false
	for i, line := range lines {
		if faultyAuthorScriptLineRe.MatchString(line) {
			lines[i] = line + "'"
			changed = true
		}
	}
	if changed {
		_ = os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
	}
}

// MergeOptions control Merge.
type MergeOptions struct {
	// NoEdit accepts the default merge commit message.
	NoEdit bool
}

// Merge merges branch into the current branch with --no-ff, so the
// merge stays visible in history.
func (r *Repo) Merge(ctx context.Context, branch refs.LocalBranch, opts MergeOptions) error {
	args := []string{"merge", "--no-ff"}
	if opts.NoEdit {
		args = append(args, "--no-edit")
	}
	args = append(args, branch.String())
	exitCode, err := r.executor.RunAttached(ctx, r.dir, nil, args...)
	r.Flush()
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("git merge of %s exited with %d; resolve the conflicts and commit the merge", branch, exitCode)
	}
	return nil
}

// MergeFFOnly fast-forwards the current branch to branch.
func (r *Repo) MergeFFOnly(ctx context.Context, branch refs.LocalBranch) error {
	return r.run(ctx, nil, "merge", "--ff-only", branch.String())
}

// CommitTree creates a commit object for tree with the given parent,
// message and author environment, without touching HEAD or the index.
// Returns the new commit's hash.
func (r *Repo) CommitTree(ctx context.Context, tree refs.TreeHash, parent refs.CommitHash,
	message string, env []string) (refs.CommitHash, error) {
	result, err := r.executor.Run(ctx, r.dir, env,
		"commit-tree", tree.String(), "-p", parent.String(), "-m", message)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("git commit-tree failed: %s", strings.TrimSpace(result.Stderr))
	}
	return refs.CommitHash(strings.TrimSpace(result.Stdout)), nil
}

// UpdateRef points ref at newValue, recording subject in the reflog.
// The subject matters: unlike a `reset`, it survives the filtered-reflog
// pruning that fork-point inference applies.
func (r *Repo) UpdateRef(ctx context.Context, ref refs.Revision, newValue refs.CommitHash, subject string) error {
	return r.run(ctx, nil, "update-ref", "-m", subject, ref.String(), newValue.String())
}

// AuthorIdentity describes the author of a commit, as needed to
// recreate authorship when squashing.
type AuthorIdentity struct {
	Name  string
	Email string
	Date  string
}

// AuthorIdentityByRevision extracts the author identity of a commit.
func (r *Repo) AuthorIdentityByRevision(ctx context.Context, revision refs.Revision) (AuthorIdentity, error) {
	out, err := r.output(ctx, "log", "-1", "--format=%aN%n%aE%n%ai", revision.String())
	if err != nil {
		return AuthorIdentity{}, err
	}
	lines := strings.SplitN(out, "\n", 3)
	if len(lines) < 3 {
		return AuthorIdentity{}, fmt.Errorf("cannot read author identity of %s", revision)
	}
	return AuthorIdentity{Name: lines[0], Email: lines[1], Date: lines[2]}, nil
}

// Env renders the identity as GIT_AUTHOR_* environment entries.
func (a AuthorIdentity) Env() []string {
	return []string{
		"GIT_AUTHOR_NAME=" + a.Name,
		"GIT_AUTHOR_EMAIL=" + a.Email,
		"GIT_AUTHOR_DATE=" + a.Date,
	}
}

// DisplayDiff runs git diff between the fork point and the working
// tree (or a branch), terminal attached so the pager works.
func (r *Repo) DisplayDiff(ctx context.Context, forkPoint refs.Revision, branch refs.LocalBranch, extraArgs ...string) error {
	args := []string{"diff"}
	args = append(args, extraArgs...)
	if branch != "" {
		args = append(args, forkPoint.String()+".."+branch.Ref().String())
	} else {
		// A single revision makes git diff compare against the working tree.
		args = append(args, forkPoint.String())
	}
	_, err := r.executor.RunAttached(ctx, r.dir, nil, args...)
	return err
}

// DisplayLog runs git log of a branch down to its fork point, terminal
// attached.
func (r *Repo) DisplayLog(ctx context.Context, branch refs.LocalBranch, forkPoint refs.Revision, extraArgs ...string) error {
	args := []string{"log", "^" + forkPoint.String(), branch.Ref().String()}
	args = append(args, extraArgs...)
	_, err := r.executor.RunAttached(ctx, r.dir, nil, args...)
	return err
}
