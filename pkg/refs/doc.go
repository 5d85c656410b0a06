// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package refs provides type-distinct wrappers for git branch names,
// refs and object hashes.
//
// Local and remote branches, in both their short and fully-qualified
// forms, are separate types so that a function expecting a full ref can
// never silently receive a short name (or vice versa); crossing between
// the forms always goes through an explicit conversion.
package refs
