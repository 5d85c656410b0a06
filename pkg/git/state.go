// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// InProgressOperation names a git operation that blocks machete from
// acting until it is resolved.
type InProgressOperation string

const (
	OpNone       InProgressOperation = ""
	OpAM         InProgressOperation = "am session"
	OpCherryPick InProgressOperation = "cherry-pick"
	OpMerge      InProgressOperation = "merge"
	OpRebase     InProgressOperation = "rebase"
	OpRevert     InProgressOperation = "revert"
)

// InProgressOperationOrNone detects an ongoing rebase, am session,
// cherry-pick, merge or revert. Rebase/cherry-pick/merge/revert all
// happen on a per-worktree basis, hence the per-worktree git dir.
func (r *Repo) InProgressOperationOrNone(ctx context.Context) (InProgressOperation, error) {
	checks := []struct {
		op    InProgressOperation
		parts []string
		isDir bool
	}{
		{OpAM, []string{"rebase-apply", "applying"}, false},
		{OpRebase, []string{"rebase-apply"}, true},
		{OpRebase, []string{"rebase-merge"}, true},
		{OpCherryPick, []string{"CHERRY_PICK_HEAD"}, false},
		{OpMerge, []string{"MERGE_HEAD"}, false},
		{OpRevert, []string{"REVERT_HEAD"}, false},
	}
	for _, check := range checks {
		path, err := r.GitSubpath(ctx, check.parts...)
		if err != nil {
			return OpNone, err
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if check.isDir == info.IsDir() {
			return check.op, nil
		}
	}
	return OpNone, nil
}

// CurrentlyRebasedBranch returns the branch being rebased, if a rebase
// is in progress.
func (r *Repo) CurrentlyRebasedBranch(ctx context.Context) (refs.LocalBranch, bool) {
	for _, dir := range []string{"rebase-merge", "rebase-apply"} {
		path, err := r.GitSubpath(ctx, dir, "head-name")
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		ref := refs.LocalRef(strings.TrimSpace(string(data)))
		return ref.Branch(), true
	}
	return "", false
}

// CurrentlyBisectedBranch returns the branch being bisected, if any.
func (r *Repo) CurrentlyBisectedBranch(ctx context.Context) (refs.LocalBranch, bool) {
	path, err := r.GitSubpath(ctx, "BISECT_START")
	if err != nil {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return refs.LocalBranch(strings.TrimSpace(string(data))), true
}

// HookPath locates a hook by name, honoring core.hooksPath.
func (r *Repo) HookPath(ctx context.Context, name string) (string, error) {
	hooksDir, ok, err := r.ConfigValue(ctx, "core.hooksPath")
	if err != nil {
		return "", err
	}
	if !ok {
		mainGitDir, err := r.MainGitDir(ctx)
		if err != nil {
			return "", err
		}
		hooksDir = filepath.Join(mainGitDir, "hooks")
	}
	return filepath.Join(hooksDir, name), nil
}

// IsExecutableFile reports whether path exists and is executable.
func IsExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}

// RunHook executes a machete hook with the given arguments in dir,
// terminal attached. Returns the exit code; a missing or
// non-executable hook yields 0 without execution.
func (r *Repo) RunHook(ctx context.Context, hookPath, dir string, env []string, args ...string) (int, error) {
	if !IsExecutableFile(hookPath) {
		return 0, nil
	}
	cmd := exec.CommandContext(ctx, hookPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return exitError.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}

// ResolveEditor picks the editor for the layout file following the
// same chain git itself uses, extended with GIT_MACHETE_EDITOR at the
// front: GIT_MACHETE_EDITOR, GIT_EDITOR, core.editor, VISUAL, EDITOR,
// then editor/nano/vi from PATH.
func (r *Repo) ResolveEditor(ctx context.Context) (string, error) {
	if v := os.Getenv("GIT_MACHETE_EDITOR"); v != "" {
		if _, err := exec.LookPath(strings.Fields(v)[0]); err != nil {
			return "", fmt.Errorf("GIT_MACHETE_EDITOR is set to %q but this editor cannot be found", v)
		}
		return v, nil
	}
	candidates := []string{os.Getenv("GIT_EDITOR")}
	if coreEditor, ok, err := r.ConfigValue(ctx, "core.editor"); err == nil && ok {
		candidates = append(candidates, coreEditor)
	}
	candidates = append(candidates, os.Getenv("VISUAL"), os.Getenv("EDITOR"), "editor", "nano", "vi")
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, err := exec.LookPath(strings.Fields(candidate)[0]); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("cannot determine editor; set the GIT_MACHETE_EDITOR environment variable")
}

// RunEditor opens the resolved editor on path, terminal attached.
func (r *Repo) RunEditor(ctx context.Context, path string) error {
	editor, err := r.ResolveEditor(ctx)
	if err != nil {
		return err
	}
	parts := strings.Fields(editor)
	cmd := exec.CommandContext(ctx, parts[0], append(parts[1:], path)...)
	cmd.Dir = r.dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// RunHookCaptured executes a hook capturing its stdout/stderr instead
// of attaching the terminal (used by the machete-status-branch hook,
// whose output is embedded into the status display).
func (r *Repo) RunHookCaptured(ctx context.Context, hookPath, dir string, env []string, args ...string) (int, string, error) {
	if !IsExecutableFile(hookPath) {
		return -1, "", nil
	}
	cmd := exec.CommandContext(ctx, hookPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return exitError.ExitCode(), stdout.String(), nil
		}
		return -1, "", err
	}
	return 0, stdout.String(), nil
}
