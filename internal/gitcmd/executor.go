// Package gitcmd provides Git command execution and output handling.
// This package wraps the Git CLI and provides a structured interface
// for executing Git commands with proper error handling.
package gitcmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Executor executes Git commands and captures their output.
type Executor struct {
	// gitBinary is the path to the Git executable.
	// Defaults to "git" (searches PATH).
	gitBinary string

	// env contains environment variables set for every Git command,
	// added to the inherited environment.
	env []string
}

// Result contains the result of a Git command execution.
type Result struct {
	// Stdout contains the command's standard output.
	Stdout string

	// Stderr contains the command's standard error output.
	Stderr string

	// ExitCode is the command's exit code.
	ExitCode int
}

// Option configures an Executor.
type Option func(*Executor)

// WithGitBinary sets a custom Git binary path.
func WithGitBinary(path string) Option {
	return func(e *Executor) {
		e.gitBinary = path
	}
}

// WithEnv sets environment variables for every Git command.
func WithEnv(env []string) Option {
	return func(e *Executor) {
		e.env = env
	}
}

// NewExecutor creates a new Git command executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		gitBinary: "git",
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run executes a Git command in the specified directory, capturing output.
// extraEnv entries are appended to the inherited environment for this
// invocation only.
func (e *Executor) Run(ctx context.Context, dir string, extraEnv []string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, e.gitBinary, args...)
	cmd.Dir = dir
	cmd.Env = append(append(os.Environ(), e.env...), extraEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	execErr := cmd.Run()

	exitCode := 0
	if execErr != nil {
		if exitError, ok := execErr.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		} else {
			// Non-exit error (e.g. command not found).
			return nil, fmt.Errorf("cannot run %s: %w", e.gitBinary, execErr)
		}
	}

	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}, nil
}

// RunInput is like Run but feeds input to the command's standard input.
// Needed for e.g. git patch-id, which reads the patch from stdin.
func (e *Executor) RunInput(ctx context.Context, dir, input string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, e.gitBinary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), e.env...)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	execErr := cmd.Run()

	exitCode := 0
	if execErr != nil {
		if exitError, ok := execErr.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		} else {
			return nil, fmt.Errorf("cannot run %s: %w", e.gitBinary, execErr)
		}
	}

	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}, nil
}

// RunAttached executes a Git command with the terminal attached,
// so that interactive commands (rebase -i, merge editors) work.
// Returns the exit code.
func (e *Executor) RunAttached(ctx context.Context, dir string, extraEnv []string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, e.gitBinary, args...)
	cmd.Dir = dir
	cmd.Env = append(append(os.Environ(), e.env...), extraEnv...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	execErr := cmd.Run()
	if execErr != nil {
		if exitError, ok := execErr.(*exec.ExitError); ok {
			return exitError.ExitCode(), nil
		}
		return -1, fmt.Errorf("cannot run %s: %w", e.gitBinary, execErr)
	}
	return 0, nil
}

// Output executes a Git command and returns trimmed stdout.
// Returns a *GitError if the command exits non-zero.
func (e *Executor) Output(ctx context.Context, dir string, args ...string) (string, error) {
	result, err := e.Run(ctx, dir, nil, args...)
	if err != nil {
		return "", err
	}

	if result.ExitCode != 0 {
		return "", &GitError{
			Command:  "git " + strings.Join(args, " "),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	return strings.TrimSpace(result.Stdout), nil
}

// Lines executes a Git command and returns stdout as a slice of
// non-empty lines. Returns an error if the command fails.
func (e *Executor) Lines(ctx context.Context, dir string, args ...string) ([]string, error) {
	result, err := e.Run(ctx, dir, nil, args...)
	if err != nil {
		return nil, err
	}

	if result.ExitCode != 0 {
		return nil, &GitError{
			Command:  "git " + strings.Join(args, " "),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	return NonEmptyLines(result.Stdout), nil
}

// OK executes a Git command and returns only whether it succeeded.
func (e *Executor) OK(ctx context.Context, dir string, args ...string) (bool, error) {
	result, err := e.Run(ctx, dir, nil, args...)
	if err != nil {
		return false, err
	}

	return result.ExitCode == 0, nil
}

// NonEmptyLines splits s into lines, dropping empty ones.
func NonEmptyLines(s string) []string {
	lines := strings.Split(s, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			filtered = append(filtered, line)
		}
	}
	return filtered
}

// GitError represents a Git command execution error.
type GitError struct {
	// Command is the Git command that failed.
	Command string

	// ExitCode is the Git exit code.
	ExitCode int

	// Stderr is the error output from Git.
	Stderr string
}

// Error implements the error interface.
func (e *GitError) Error() string {
	msg := fmt.Sprintf("git command failed: %s (exit code %d)", e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += "\n" + strings.TrimSpace(e.Stderr)
	}
	return msg
}

// Is implements error comparison.
func (e *GitError) Is(target error) bool {
	_, ok := target.(*GitError)
	return ok
}
