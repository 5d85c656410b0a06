// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// SlidableBranches lists the managed branches that have a parent and
// can therefore be slid out.
func (s *State) SlidableBranches() []refs.LocalBranch {
	var result []refs.LocalBranch
	for _, branch := range s.Layout.Managed() {
		if _, ok := s.Layout.Parent(branch); ok {
			result = append(result, branch)
		}
	}
	return result
}

// SlidableAfter lists the branches that could be slid out immediately
// after branch in one invocation: its sole child, if any.
func (s *State) SlidableAfter(branch refs.LocalBranch) []refs.LocalBranch {
	if _, ok := s.Layout.Parent(branch); ok {
		children := s.Layout.Children(branch)
		if len(children) == 1 {
			return children
		}
	}
	return nil
}

// UnmanagedBranches lists the local branches absent from the layout.
func (s *State) UnmanagedBranches(ctx context.Context) ([]refs.LocalBranch, error) {
	locals, err := s.Git.LocalBranches(ctx)
	if err != nil {
		return nil, err
	}
	var result []refs.LocalBranch
	for _, branch := range locals {
		if !s.Layout.IsManaged(branch) {
			result = append(result, branch)
		}
	}
	return result, nil
}
