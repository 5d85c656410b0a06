// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// Direction names a movement over the branch forest.
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionFirst   Direction = "first"
	DirectionLast    Direction = "last"
	DirectionNext    Direction = "next"
	DirectionPrev    Direction = "prev"
	DirectionRoot    Direction = "root"
	DirectionCurrent Direction = "current"
)

// ParseDirection validates a direction argument, accepting one-letter
// abbreviations.
func ParseDirection(value string) (Direction, error) {
	switch value {
	case "u", "up":
		return DirectionUp, nil
	case "d", "down":
		return DirectionDown, nil
	case "f", "first":
		return DirectionFirst, nil
	case "l", "last":
		return DirectionLast, nil
	case "n", "next":
		return DirectionNext, nil
	case "p", "prev":
		return DirectionPrev, nil
	case "r", "root":
		return DirectionRoot, nil
	case "c", "current":
		return DirectionCurrent, nil
	}
	return "", fmt.Errorf("invalid direction: %s; valid values are up, down, first, last, next, prev, root, current", value)
}

// UpBranch returns the parent of branch; for an unmanaged branch the
// upstream is inferred (with a warning).
func (s *State) UpBranch(ctx context.Context, branch refs.LocalBranch) (refs.LocalBranch, error) {
	if s.Layout.IsManaged(branch) {
		if parent, ok := s.Layout.Parent(branch); ok {
			return parent, nil
		}
		return "", fmt.Errorf("branch %s has no upstream branch", cliutil.Bold(branch.String()))
	}
	upstream, ok, err := s.InferUpstream(ctx, branch, nil)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("branch %s not found in the tree of branch dependencies and its upstream could not be inferred", cliutil.Bold(branch.String()))
	}
	s.Warn(fmt.Sprintf("branch %s not found in the tree of branch dependencies; the upstream has been inferred to %s",
		cliutil.Bold(branch.String()), cliutil.Bold(upstream.String())))
	return upstream, nil
}

// DownBranches returns the children of branch; an error when there are
// none.
func (s *State) DownBranches(branch refs.LocalBranch) ([]refs.LocalBranch, error) {
	if err := s.ExpectInManaged(branch); err != nil {
		return nil, err
	}
	children := s.Layout.Children(branch)
	if len(children) == 0 {
		return nil, fmt.Errorf("branch %s has no downstream branch", cliutil.Bold(branch.String()))
	}
	return children, nil
}

// RootBranch walks up to the root of the branch's tree. An unmanaged
// branch is attributed to the first (pickLast=false) or last root.
func (s *State) RootBranch(branch refs.LocalBranch, pickLast bool) (refs.LocalBranch, error) {
	if !s.Layout.IsManaged(branch) {
		roots := s.Layout.Roots()
		if len(roots) == 0 {
			return "", s.ExpectAtLeastOneManaged()
		}
		picked := roots[0]
		which := "first"
		if pickLast {
			picked = roots[len(roots)-1]
			which = "last"
		}
		s.Warn(fmt.Sprintf("%s is not a managed branch, assuming %s (the %s root) instead as root",
			cliutil.Bold(branch.String()), picked, which))
		return picked, nil
	}
	for {
		parent, ok := s.Layout.Parent(branch)
		if !ok {
			return branch, nil
		}
		branch = parent
	}
}

// FirstBranch is the first child of the branch's root (or the root
// itself when childless).
func (s *State) FirstBranch(branch refs.LocalBranch) (refs.LocalBranch, error) {
	root, err := s.RootBranch(branch, false)
	if err != nil {
		return "", err
	}
	if children := s.Layout.Children(root); len(children) > 0 {
		return children[0], nil
	}
	return root, nil
}

// LastBranch is the deepest last descendant of the branch's last root.
func (s *State) LastBranch(branch refs.LocalBranch) (refs.LocalBranch, error) {
	destination, err := s.RootBranch(branch, true)
	if err != nil {
		return "", err
	}
	for {
		children := s.Layout.Children(destination)
		if len(children) == 0 {
			return destination, nil
		}
		destination = children[len(children)-1]
	}
}

// NextBranch is the successor of branch in the pre-order sequence.
func (s *State) NextBranch(branch refs.LocalBranch) (refs.LocalBranch, error) {
	if err := s.ExpectInManaged(branch); err != nil {
		return "", err
	}
	managed := s.Layout.Managed()
	for i, b := range managed {
		if b == branch {
			if i+1 == len(managed) {
				return "", fmt.Errorf("branch %s has no successor", cliutil.Bold(branch.String()))
			}
			return managed[i+1], nil
		}
	}
	return "", unexpectedf("managed branch %s not found in pre-order", branch)
}

// PrevBranch is the predecessor of branch in the pre-order sequence.
func (s *State) PrevBranch(branch refs.LocalBranch) (refs.LocalBranch, error) {
	if err := s.ExpectInManaged(branch); err != nil {
		return "", err
	}
	managed := s.Layout.Managed()
	for i, b := range managed {
		if b == branch {
			if i == 0 {
				return "", fmt.Errorf("branch %s has no predecessor", cliutil.Bold(branch.String()))
			}
			return managed[i-1], nil
		}
	}
	return "", unexpectedf("managed branch %s not found in pre-order", branch)
}

// BranchInDirection resolves a navigation direction from the current
// branch. For down with multiple children, pick is consulted (nil pick
// means return an error listing the candidates).
func (s *State) BranchInDirection(ctx context.Context, current refs.LocalBranch, direction Direction,
	pick func(candidates []refs.LocalBranch) (refs.LocalBranch, error)) (refs.LocalBranch, error) {
	switch direction {
	case DirectionUp:
		return s.UpBranch(ctx, current)
	case DirectionDown:
		children, err := s.DownBranches(current)
		if err != nil {
			return "", err
		}
		if len(children) == 1 {
			return children[0], nil
		}
		if pick == nil {
			names := make([]string, len(children))
			for i, child := range children {
				names[i] = child.String()
			}
			return "", fmt.Errorf("branch %s has multiple downstream branches: %v", current, names)
		}
		return pick(children)
	case DirectionFirst:
		return s.FirstBranch(current)
	case DirectionLast:
		return s.LastBranch(current)
	case DirectionNext:
		return s.NextBranch(current)
	case DirectionPrev:
		return s.PrevBranch(current)
	case DirectionRoot:
		return s.RootBranch(current, false)
	case DirectionCurrent:
		return current, nil
	}
	return "", fmt.Errorf("invalid direction: %s", direction)
}

// Go checks out the branch in the given direction.
func (s *State) Go(ctx context.Context, direction Direction,
	pick func(candidates []refs.LocalBranch) (refs.LocalBranch, error)) error {
	current, err := s.Git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	destination, err := s.BranchInDirection(ctx, current, direction, pick)
	if err != nil {
		return err
	}
	if destination == current {
		return nil
	}
	return s.Git.Checkout(ctx, destination)
}

// Show prints the branch in the given direction, without checking out.
func (s *State) Show(ctx context.Context, direction Direction, branch refs.LocalBranch,
	pick func(candidates []refs.LocalBranch) (refs.LocalBranch, error)) error {
	destination, err := s.BranchInDirection(ctx, branch, direction, pick)
	if err != nil {
		return err
	}
	s.Printf("%s\n", destination)
	return nil
}
