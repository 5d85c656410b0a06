// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"errors"
	"fmt"
)

// ErrInteractionStopped is returned when the user answers q (or the
// apply-then-quit yq) to a prompt. The traversal engine treats it as a
// clean stop, not a failure.
var ErrInteractionStopped = errors.New("interaction stopped")

// UnexpectedError flags a violated internal invariant. The top-level
// shell renders it with an encouragement to file a bug.
type UnexpectedError struct {
	Msg string
}

func (e *UnexpectedError) Error() string {
	return e.Msg + "\nThis looks like a bug in git machete; please consider reporting it"
}

func unexpectedf(format string, args ...any) error {
	return &UnexpectedError{Msg: fmt.Sprintf(format, args...)}
}

// ForkPointNotFoundError is raised when no fork point can be inferred
// for a branch and no fallback applies.
type ForkPointNotFoundError struct {
	Branch string
}

func (e *ForkPointNotFoundError) Error() string {
	return fmt.Sprintf("fork point not found for branch %s; use `git machete fork-point %s --override-to=...`",
		e.Branch, e.Branch)
}

// GitStateError reports a repository state that blocks the requested
// operation, together with the remedial action.
type GitStateError struct {
	Msg string
}

func (e *GitStateError) Error() string { return e.Msg }

func gitStatef(format string, args ...any) error {
	return &GitStateError{Msg: fmt.Sprintf(format, args...)}
}
