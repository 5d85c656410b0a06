// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// AddOptions configure Add.
type AddOptions struct {
	// Onto attaches the branch under an explicit parent.
	Onto refs.LocalBranch

	// AsRoot attaches the branch as a new root instead.
	AsRoot bool

	// AsFirstChild puts the branch first (not last) among its new
	// siblings.
	AsFirstChild bool

	// SwitchHead moves HEAD onto a newly created branch.
	SwitchHead bool
}

// Add attaches a branch to the layout: under an explicit parent, under
// an inferred one, or as a root. A branch missing locally is first
// checked out from its sole remote, or created from --onto/HEAD.
func (s *State) Add(ctx context.Context, branch refs.LocalBranch, opts AddOptions) error {
	if s.Layout.IsManaged(branch) {
		return fmt.Errorf("branch %s already exists in the tree of branch dependencies", cliutil.Bold(branch.String()))
	}
	if opts.Onto != "" {
		if err := s.ExpectInManaged(opts.Onto); err != nil {
			return err
		}
		if opts.AsRoot {
			return fmt.Errorf("option --onto cannot be combined with --as-root")
		}
	}

	exists, err := s.Git.HasLocalBranch(ctx, branch)
	if err != nil {
		return err
	}
	if !exists {
		remoteBranch, soleRemote, err := s.Git.CombinedCounterpart(ctx, branch)
		if err != nil {
			return err
		}
		if soleRemote {
			answer, err := s.AskIf(
				fmt.Sprintf("A local branch %s does not exist, but a remote branch %s exists.\nCheck out %s locally?%s",
					cliutil.Bold(branch.String()), cliutil.Bold(remoteBranch.String()), cliutil.Bold(branch.String()),
					cliutil.PrettyChoices("y", "N")),
				fmt.Sprintf("A local branch %s does not exist, but a remote branch %s exists.\nChecking out %s locally...",
					cliutil.Bold(branch.String()), cliutil.Bold(remoteBranch.String()), cliutil.Bold(branch.String())))
			if err != nil {
				return err
			}
			if answer != "y" && answer != "yes" {
				return nil
			}
			if err := s.Git.CreateBranchFromRemote(ctx, branch, remoteBranch); err != nil {
				return err
			}
			// The newly checked-out branch rewrites reflogs.
			s.invalidateReflogIndex()
		} else {
			outOf := refs.Revision("HEAD")
			outOfDesc := "the current HEAD"
			if opts.Onto != "" {
				outOf = opts.Onto.Revision()
				outOfDesc = fmt.Sprintf("branch %s", cliutil.Bold(opts.Onto.String()))
			}
			answer, err := s.AskIf(
				fmt.Sprintf("A local branch %s does not exist. Create out of %s?%s",
					cliutil.Bold(branch.String()), outOfDesc, cliutil.PrettyChoices("y", "N")),
				fmt.Sprintf("A local branch %s does not exist. Creating out of %s...",
					cliutil.Bold(branch.String()), outOfDesc))
			if err != nil {
				return err
			}
			if answer != "y" && answer != "yes" {
				return nil
			}
			if err := s.Git.CreateBranch(ctx, branch, outOf, opts.SwitchHead); err != nil {
				return err
			}
			s.invalidateReflogIndex()
		}
	}

	if opts.AsRoot || len(s.Layout.Roots()) == 0 {
		s.Layout.AddRoot(branch)
		s.Printf("Added branch %s as a new root\n", cliutil.Bold(branch.String()))
		return s.SaveLayout(false)
	}

	onto := opts.Onto
	if onto == "" {
		inferred, ok, err := s.InferUpstream(ctx, branch, func(candidate refs.LocalBranch) bool {
			return s.Layout.IsManaged(candidate)
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("could not automatically infer upstream (parent) branch for %s.\n"+
				"You can either:\n"+
				"1) specify the desired upstream branch with `--onto` or\n"+
				"2) pass `--as-root` to attach %s as a new root or\n"+
				"3) edit the branch layout file manually with `git machete edit`",
				cliutil.Bold(branch.String()), cliutil.Bold(branch.String()))
		}
		answer, err := s.AskIf(
			fmt.Sprintf("Add %s onto the inferred upstream (parent) branch %s?%s",
				cliutil.Bold(branch.String()), cliutil.Bold(inferred.String()), cliutil.PrettyChoices("y", "N")),
			fmt.Sprintf("Adding %s onto the inferred upstream (parent) branch %s",
				cliutil.Bold(branch.String()), cliutil.Bold(inferred.String())))
		if err != nil {
			return err
		}
		if answer != "y" && answer != "yes" {
			return nil
		}
		onto = inferred
	}

	s.Layout.Attach(onto, branch, opts.AsFirstChild)
	s.Printf("Added branch %s onto %s\n", cliutil.Bold(branch.String()), cliutil.Bold(onto.String()))
	return s.SaveLayout(false)
}
