// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package refs

import (
	"fmt"
	"strings"
)

const (
	headsPrefix   = "refs/heads/"
	remotesPrefix = "refs/remotes/"
)

// LocalBranch is the short name of a local branch, e.g. "develop".
type LocalBranch string

// LocalRef is the fully-qualified name of a local branch,
// e.g. "refs/heads/develop".
type LocalRef string

// RemoteBranch is the remote-qualified short name of a remote-tracking
// branch, e.g. "origin/develop".
type RemoteBranch string

// RemoteRef is the fully-qualified name of a remote-tracking branch,
// e.g. "refs/remotes/origin/develop".
type RemoteRef string

// CommitHash is a full 40-hex-digit commit hash.
type CommitHash string

// ShortCommitHash is an abbreviated commit hash, at least 7 hex digits.
type ShortCommitHash string

// TreeHash is a full tree object hash.
type TreeHash string

func (h TreeHash) String() string { return string(h) }

// PatchID is the output of git patch-id for a diff.
type PatchID string

// Revision is any revision specification accepted by git rev-parse:
// a branch name, a hash, "HEAD~2" and so on.
type Revision string

// NewLocalBranch validates that name is a bare short branch name.
// Names carrying a refs/heads/ or refs/remotes/ prefix are rejected.
func NewLocalBranch(name string) (LocalBranch, error) {
	if name == "" {
		return "", fmt.Errorf("empty branch name")
	}
	if strings.HasPrefix(name, headsPrefix) || strings.HasPrefix(name, remotesPrefix) {
		return "", fmt.Errorf("%q is a full ref, not a short branch name", name)
	}
	return LocalBranch(name), nil
}

// Ref returns the fully-qualified form of the branch.
func (b LocalBranch) Ref() LocalRef {
	return LocalRef(headsPrefix + string(b))
}

func (b LocalBranch) String() string { return string(b) }

// Revision returns the branch's fully-qualified name as a revision,
// so that lookups never get ambiguous between a branch and e.g. a file.
func (b LocalBranch) Revision() Revision { return Revision(b.Ref()) }

// Branch strips the refs/heads/ prefix.
func (r LocalRef) Branch() LocalBranch {
	return LocalBranch(strings.TrimPrefix(string(r), headsPrefix))
}

func (r LocalRef) String() string { return string(r) }

// Revision returns the ref itself as a revision.
func (r LocalRef) Revision() Revision { return Revision(r) }

// NewRemoteBranch validates that name is a remote-qualified short name.
func NewRemoteBranch(name string) (RemoteBranch, error) {
	if strings.HasPrefix(name, headsPrefix) || strings.HasPrefix(name, remotesPrefix) {
		return "", fmt.Errorf("%q is a full ref, not a short remote branch name", name)
	}
	if !strings.Contains(name, "/") {
		return "", fmt.Errorf("%q lacks a remote prefix", name)
	}
	return RemoteBranch(name), nil
}

// Ref returns the fully-qualified form of the remote-tracking branch.
func (b RemoteBranch) Ref() RemoteRef {
	return RemoteRef(remotesPrefix + string(b))
}

func (b RemoteBranch) String() string { return string(b) }

// Revision returns the branch's fully-qualified name as a revision.
func (b RemoteBranch) Revision() Revision { return Revision(b.Ref()) }

// Split returns the remote and the branch part. Only the first slash
// separates the remote; branch names may contain further slashes.
func (b RemoteBranch) Split() (remote, branch string) {
	remote, branch, _ = strings.Cut(string(b), "/")
	return remote, branch
}

// Branch strips the refs/remotes/ prefix.
func (r RemoteRef) Branch() RemoteBranch {
	return RemoteBranch(strings.TrimPrefix(string(r), remotesPrefix))
}

func (r RemoteRef) String() string { return string(r) }

// Revision returns the ref itself as a revision.
func (r RemoteRef) Revision() Revision { return Revision(r) }

func isHex(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// IsValidCommitHash reports whether s is a full 40-hex hash.
// Validity is purely lexical.
func IsValidCommitHash(s string) bool {
	return len(s) == 40 && isHex(s)
}

// IsValidShortCommitHash reports whether s is an abbreviated hash
// of at least 7 hex digits.
func IsValidShortCommitHash(s string) bool {
	return len(s) >= 7 && isHex(s)
}

func (h CommitHash) String() string { return string(h) }

// Revision returns the hash as a revision.
func (h CommitHash) Revision() Revision { return Revision(h) }

// Short abbreviates the hash to 7 digits, purely lexically.
func (h CommitHash) Short() ShortCommitHash {
	if len(h) < 7 {
		return ShortCommitHash(h)
	}
	return ShortCommitHash(h[:7])
}

func (h ShortCommitHash) String() string { return string(h) }

func (r Revision) String() string { return string(r) }
