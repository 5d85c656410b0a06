// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/layout"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// State aggregates everything an operation needs: the git gateway, the
// in-memory branch layout and the layout file location, plus the I/O
// streams for prompts and reporting.
type State struct {
	Git    Git
	Layout *layout.Layout

	// LayoutPath is where the layout is persisted.
	LayoutPath string

	// In/Out/ErrOut are the interaction streams; ErrOut carries
	// warnings and diagnostics.
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// Yes makes every prompt auto-answer y.
	Yes bool

	// Hosting is the code-hosting session, nil until InitHosting.
	Hosting *HostingSession

	in            *bufio.Reader
	emitted       map[string]bool
	branchPairIdx map[refs.CommitHash][]BranchPair
}

// NewState wires a state around a gateway. The layout starts empty;
// call LoadLayout (or Discover) to populate it.
func NewState(g Git) *State {
	return &State{
		Git:     g,
		Layout:  layout.New(),
		In:      os.Stdin,
		Out:     os.Stdout,
		ErrOut:  os.Stderr,
		emitted: map[string]bool{},
	}
}

// ResolveLayoutPath computes the layout file location, honoring
// machete.worktree.useTopLevelMacheteFile inside linked worktrees.
func (s *State) ResolveLayoutPath(ctx context.Context) error {
	gitDir, err := s.Git.GitDir(ctx)
	if err != nil {
		return err
	}
	mainGitDir, err := s.Git.MainGitDir(ctx)
	if err != nil {
		return err
	}
	useTopLevel, err := s.Git.BoolConfig(ctx, ConfigKeyWorktreeUseTopLevelLayout, true)
	if err != nil {
		return err
	}
	s.LayoutPath = layout.FilePath(gitDir, mainGitDir, useTopLevel)
	return nil
}

// LoadLayout reads the layout file into memory. With verifyBranches,
// branches that no longer exist locally are slid out: silently (with a
// stderr warning) unless interactive, in which case the user is asked.
func (s *State) LoadLayout(ctx context.Context, verifyBranches, interactive bool) error {
	if s.LayoutPath == "" {
		if err := s.ResolveLayoutPath(ctx); err != nil {
			return err
		}
	}
	l, err := layout.Load(s.LayoutPath)
	if err != nil {
		return err
	}
	s.Layout = l
	if !verifyBranches {
		return nil
	}

	var invalid []refs.LocalBranch
	for _, branch := range l.Managed() {
		exists, err := s.Git.HasLocalBranch(ctx, branch)
		if err != nil {
			return err
		}
		if !exists {
			invalid = append(invalid, branch)
		}
	}
	if len(invalid) == 0 {
		return nil
	}

	answer := "y"
	if interactive {
		names := make([]string, len(invalid))
		for i, branch := range invalid {
			names[i] = cliutil.Bold(branch.String())
		}
		what := "is not a local branch (perhaps it has been deleted?).\nSlide it out"
		if len(invalid) > 1 {
			what = "are not local branches (perhaps they have been deleted?).\nSlide them out"
		}
		answer, err = s.Ask(fmt.Sprintf("Skipping %s which %s from the branch layout file?%s",
			strings.Join(names, ", "), what, cliutil.PrettyChoices("y", "e[dit]", "N")))
		if err != nil {
			return err
		}
	} else {
		what := "invalid branch"
		if len(invalid) > 1 {
			what = "invalid branches"
		}
		names := make([]string, len(invalid))
		for i, branch := range invalid {
			names[i] = branch.String()
		}
		fmt.Fprintf(s.ErrOut, "Warning: sliding %s %s out of the branch layout file\n",
			what, strings.Join(names, ", "))
	}

	for _, branch := range invalid {
		s.Layout.SlideOut(branch)
	}
	switch answer {
	case "y", "yes":
		return s.SaveLayout(false)
	case "e", "edit":
		if err := s.EditLayout(ctx); err != nil {
			return err
		}
		return s.LoadLayout(ctx, verifyBranches, interactive)
	}
	return nil
}

// SaveLayout persists the in-memory layout.
func (s *State) SaveLayout(backup bool) error {
	return layout.Save(s.LayoutPath, s.Layout, backup)
}

// EditLayout opens the layout file in the user's editor and re-reads it.
func (s *State) EditLayout(ctx context.Context) error {
	if err := s.Git.RunEditor(ctx, s.LayoutPath); err != nil {
		return err
	}
	l, err := layout.Load(s.LayoutPath)
	if err != nil {
		return err
	}
	s.Layout = l
	return nil
}

// Warn writes a deduplicated warning to stderr: repeating the same
// message within one run is noise.
func (s *State) Warn(msg string) {
	if s.emitted == nil {
		s.emitted = map[string]bool{}
	}
	if s.emitted[msg] {
		return
	}
	s.emitted[msg] = true
	fmt.Fprintf(s.ErrOut, "Warning: %s\n", msg)
}

// Printf writes to the regular output stream.
func (s *State) Printf(format string, args ...any) {
	fmt.Fprintf(s.Out, format, args...)
}

// Ask prints msg and reads a single lowercase-trimmed answer line.
// With Yes set, "y" is assumed without prompting.
func (s *State) Ask(msg string) (string, error) {
	if s.Yes {
		return "y", nil
	}
	fmt.Fprint(s.Out, msg)
	if s.in == nil {
		s.in = bufio.NewReader(s.In)
	}
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", ErrInteractionStopped
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

// AskIf prints msg and expects y/n(/q); with Yes set it prints
// yesMsg instead and proceeds.
func (s *State) AskIf(msg, yesMsg string) (string, error) {
	if s.Yes {
		if yesMsg != "" {
			fmt.Fprintln(s.Out, yesMsg)
		}
		return "y", nil
	}
	return s.Ask(msg)
}

// ExpectInManaged fails with guidance when branch is not managed.
func (s *State) ExpectInManaged(branch refs.LocalBranch) error {
	if !s.Layout.IsManaged(branch) {
		return fmt.Errorf("branch %s not found in the tree of branch dependencies; "+
			"use `git machete add %s` or `git machete edit`", branch, branch)
	}
	return nil
}

// ExpectAtLeastOneManaged fails when the layout is empty.
func (s *State) ExpectAtLeastOneManaged() error {
	if len(s.Layout.Roots()) > 0 {
		return nil
	}
	return fmt.Errorf("no branches listed in %s; consider one of:\n"+
		"* `git machete discover`\n"+
		"* `git machete edit` or edit %s manually\n"+
		"* `git machete github checkout-prs --mine`\n"+
		"* `git machete gitlab checkout-mrs --mine`",
		s.LayoutPath, s.LayoutPath)
}

// ExpectNoOperationInProgress fails when a rebase, merge, cherry-pick,
// am session or revert is underway.
func (s *State) ExpectNoOperationInProgress(ctx context.Context) error {
	op, err := s.Git.InProgressOperationOrNone(ctx)
	if err != nil {
		return err
	}
	if op != "" {
		return gitStatef("%s in progress; resolve it first (or abort it) and re-run", op)
	}
	return nil
}
