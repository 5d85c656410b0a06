// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/git"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// SlideOutOptions configure SlideOut.
type SlideOutOptions struct {
	// Delete removes the slid-out branches after the layout update.
	Delete bool

	// DownForkPoint overrides the fork point used when rebasing the
	// child of the last slid-out branch.
	DownForkPoint refs.Revision

	// Merge merges the new upstream into the children instead of
	// rebasing them onto it.
	Merge bool

	NoInteractiveRebase bool
	NoEditMerge         bool
}

// runPostSlideOutHook fires machete-post-slide-out after a successful
// slide-out.
func (s *State) runPostSlideOutHook(ctx context.Context, newUpstream, slidOut refs.LocalBranch,
	newDownstreams []refs.LocalBranch) error {
	hookPath, err := s.Git.HookPath(ctx, "machete-post-slide-out")
	if err != nil {
		return err
	}
	rootDir, err := s.Git.RootDir(ctx)
	if err != nil {
		return err
	}
	args := []string{newUpstream.String(), slidOut.String()}
	for _, downstream := range newDownstreams {
		args = append(args, downstream.String())
	}
	exitCode, err := s.Git.RunHook(ctx, hookPath, rootDir, nil, args...)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("the machete-post-slide-out hook exited with %d, aborting", exitCode)
	}
	return nil
}

// runPreRebaseHook fires machete-pre-rebase; a non-zero exit vetoes the
// rebase.
func (s *State) runPreRebaseHook(ctx context.Context, newBase refs.Revision,
	forkPoint refs.Revision, branch refs.LocalBranch) error {
	hookPath, err := s.Git.HookPath(ctx, "machete-pre-rebase")
	if err != nil {
		return err
	}
	rootDir, err := s.Git.RootDir(ctx)
	if err != nil {
		return err
	}
	exitCode, err := s.Git.RunHook(ctx, hookPath, rootDir, nil,
		newBase.String(), forkPoint.String(), branch.String())
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("the machete-pre-rebase hook refused to rebase (exit code %d)", exitCode)
	}
	return nil
}

// rebaseOnto wraps the gateway rebase with the pre-rebase hook and the
// GIT_MACHETE_REBASE_OPTS pass-through.
func (s *State) rebaseOnto(ctx context.Context, onto refs.Revision, forkPoint refs.Revision,
	branch refs.LocalBranch, noInteractive bool) error {
	if err := s.runPreRebaseHook(ctx, onto, forkPoint, branch); err != nil {
		return err
	}
	err := s.Git.Rebase(ctx, onto, forkPoint, branch, git.RebaseOptions{
		NoInteractive: noInteractive,
		ExtraOpts:     rebaseOptsFromEnv(),
	})
	s.invalidateReflogIndex()
	return err
}

// SlideOut removes a chain of branches from the layout (each must be
// the unique child of the previous one), reparents the descendants of
// the last one, and rebases (or merges) them against the new upstream.
func (s *State) SlideOut(ctx context.Context, branchesToSlideOut []refs.LocalBranch, opts SlideOutOptions) error {
	if err := s.ExpectNoOperationInProgress(ctx); err != nil {
		return err
	}
	if len(branchesToSlideOut) == 0 {
		current, err := s.Git.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		branchesToSlideOut = []refs.LocalBranch{current}
	}

	for _, branch := range branchesToSlideOut {
		if err := s.ExpectInManaged(branch); err != nil {
			return err
		}
		if !s.Layout.Qualifiers(branch).SlideOut {
			return fmt.Errorf("branch %s is annotated with `slide-out=no` qualifier, aborting.\n"+
				"Remove the qualifier using `git machete anno` or edit branch layout file directly",
				cliutil.Bold(branch.String()))
		}
		if _, ok := s.Layout.Parent(branch); !ok {
			return fmt.Errorf("no upstream branch defined for %s, cannot slide out", cliutil.Bold(branch.String()))
		}
	}

	last := branchesToSlideOut[len(branchesToSlideOut)-1]
	if opts.DownForkPoint != "" {
		children := s.Layout.Children(last)
		if len(children) > 1 {
			return fmt.Errorf("last branch to slide out can't have more than one child branch " +
				"if option `--down-fork-point` is passed")
		}
		if len(children) == 0 {
			return fmt.Errorf("last branch to slide out must have a child branch " +
				"if option `--down-fork-point` is passed")
		}
		if err := s.checkForkPointIsAncestorOfTip(ctx, opts.DownForkPoint, children[0]); err != nil {
			return err
		}
	}

	// Interior slide-out branches must each have the next one as their
	// sole child.
	for i := 0; i+1 < len(branchesToSlideOut); i++ {
		upper, lower := branchesToSlideOut[i], branchesToSlideOut[i+1]
		children := s.Layout.Children(upper)
		switch {
		case len(children) == 0:
			return fmt.Errorf("no downstream branch defined for %s, cannot slide out", cliutil.Bold(upper.String()))
		case len(children) > 1:
			names := make([]string, len(children))
			for j, child := range children {
				names[j] = cliutil.Bold(child.String())
			}
			return fmt.Errorf("multiple downstream branches defined for %s: %s; cannot slide out",
				cliutil.Bold(upper.String()), strings.Join(names, ", "))
		case children[0] != lower:
			return fmt.Errorf("%s is not downstream of %s, cannot slide out",
				cliutil.Bold(lower.String()), cliutil.Bold(upper.String()))
		}
	}

	newUpstream, _ := s.Layout.Parent(branchesToSlideOut[0])
	newDownstreams := append([]refs.LocalBranch{}, s.Layout.Children(last)...)

	for _, branch := range branchesToSlideOut {
		s.Layout.SlideOut(branch)
	}
	if err := s.SaveLayout(false); err != nil {
		return err
	}
	if err := s.runPostSlideOutHook(ctx, newUpstream, last, newDownstreams); err != nil {
		return err
	}

	if current, ok := s.Git.CurrentBranchOrNone(ctx); ok {
		for _, branch := range branchesToSlideOut {
			if current == branch {
				if err := s.Git.Checkout(ctx, newUpstream); err != nil {
					return err
				}
				break
			}
		}
	}

	for _, downstream := range newDownstreams {
		qualifiers := s.Layout.Qualifiers(downstream)
		useMerge := opts.Merge || qualifiers.UpdateWithMerge
		useRebase := !useMerge && qualifiers.Rebase
		if useMerge || useRebase {
			if err := s.Git.Checkout(ctx, downstream); err != nil {
				return err
			}
		}
		if useMerge {
			s.Printf("Merging %s into %s...\n", cliutil.Bold(newUpstream.String()), cliutil.Bold(downstream.String()))
			if err := s.Git.Merge(ctx, newUpstream, git.MergeOptions{NoEdit: opts.NoEditMerge}); err != nil {
				return err
			}
			s.invalidateReflogIndex()
		} else if useRebase {
			s.Printf("Rebasing %s onto %s...\n", cliutil.Bold(downstream.String()), cliutil.Bold(newUpstream.String()))
			forkPoint := opts.DownForkPoint
			if forkPoint == "" {
				hash, _, err := s.ForkPoint(ctx, downstream, true)
				if err != nil {
					return err
				}
				forkPoint = hash.Revision()
			}
			if err := s.rebaseOnto(ctx, newUpstream.Ref().Revision(), forkPoint, downstream, opts.NoInteractiveRebase); err != nil {
				return err
			}
		}
	}

	if opts.Delete {
		return s.deleteBranches(ctx, branchesToSlideOut, SquashMergeDetectionNone, false)
	}
	return nil
}

// SlideOutRemovedFromRemote slides out every childless managed branch
// whose counterpart no longer exists on its remote.
func (s *State) SlideOutRemovedFromRemote(ctx context.Context, deleteBranches bool) error {
	if err := s.ExpectNoOperationInProgress(ctx); err != nil {
		return err
	}
	var slidOut []refs.LocalBranch
	for _, branch := range s.Layout.Managed() {
		removed, err := s.Git.IsRemovedFromRemote(ctx, branch)
		if err != nil {
			return err
		}
		if !removed || len(s.Layout.Children(branch)) > 0 {
			continue
		}
		if !s.Layout.Qualifiers(branch).SlideOut {
			s.Printf("Skipping %s as it's marked as `slide-out=no`\n", cliutil.Bold(branch.String()))
			continue
		}
		s.Printf("Sliding out %s\n", cliutil.Bold(branch.String()))
		slidOut = append(slidOut, branch)
	}
	for _, branch := range slidOut {
		s.Layout.SlideOut(branch)
	}
	if err := s.SaveLayout(false); err != nil {
		return err
	}
	if deleteBranches {
		yes := s.Yes
		s.Yes = true
		defer func() { s.Yes = yes }()
		return s.deleteBranches(ctx, slidOut, SquashMergeDetectionNone, true)
	}
	return nil
}

// checkForkPointIsAncestorOfTip validates an explicitly passed fork
// point against the branch it is to be used with.
func (s *State) checkForkPointIsAncestorOfTip(ctx context.Context, forkPoint refs.Revision, branch refs.LocalBranch) error {
	isAncestor, err := s.Git.IsAncestorOrEqual(ctx, forkPoint, branch.Revision())
	if err != nil {
		return err
	}
	if !isAncestor {
		return fmt.Errorf("fork point %s is not ancestor of or the tip of the %s branch",
			forkPoint, cliutil.Bold(branch.String()))
	}
	return nil
}
