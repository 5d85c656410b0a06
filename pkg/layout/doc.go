// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package layout implements the branch layout: the user-editable forest
// of local branches kept in the machete file inside the git directory.
//
// The package covers parsing and rendering of the layout file, the
// in-memory forest (roots, parent and child relations), and per-branch
// annotations with their qualifier flags.
package layout
