// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package git is the gateway to the underlying git repository.
//
// Repo exposes queries (branches, refs, history, reflogs, config,
// remotes) and mutations (checkout, rebase, merge, push, ...) over the
// git CLI. Query results are cached for the lifetime of a single
// process run; every mutating command flushes the caches so the next
// query re-reads ground truth.
package git
