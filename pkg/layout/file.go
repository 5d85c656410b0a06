// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the branch layout file name inside the git directory.
const FileName = "machete"

// FilePath returns the branch layout file location for a repository.
//
// worktreeGitDir is the (possibly per-worktree) git directory of the
// current worktree; mainGitDir is the top-level one. They are equal
// outside of linked worktrees. useTopLevel selects the shared top-level
// file (the default) over a per-worktree one.
func FilePath(worktreeGitDir, mainGitDir string, useTopLevel bool) string {
	if useTopLevel {
		return filepath.Join(mainGitDir, FileName)
	}
	return filepath.Join(worktreeGitDir, FileName)
}

// Load parses the layout file at path. A missing file yields an empty
// layout, not an error.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}
	l, err := Parse(string(data))
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%s, %w", path, parseErr)
		}
		return nil, err
	}
	return l, nil
}

// Save writes the rendered layout to path. When backup is requested and
// the file already exists, its previous content is first copied to
// path~ (the way discover does before overwriting a hand-made layout).
func Save(path string, l *Layout, backup bool) error {
	if backup {
		if prev, err := os.ReadFile(path); err == nil {
			if err := os.WriteFile(path+"~", prev, 0o644); err != nil {
				return fmt.Errorf("cannot back up branch layout file: %w", err)
			}
		}
	}
	return os.WriteFile(path, []byte(l.Render()), 0o644)
}
