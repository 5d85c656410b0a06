// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package git

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// Reflog returns the reflog of the given full ref, latest entry first.
// A missing or empty reflog yields an empty slice.
func (r *Repo) Reflog(ctx context.Context, ref refs.Revision) ([]ReflogEntry, error) {
	key := ref.String()
	if entries, ok := r.reflogs[key]; ok {
		return entries, nil
	}
	lines, err := r.lines(ctx, "reflog", "show", "--format=%H:%gs", ref.String(), "--")
	if err != nil {
		// A branch with no reflog (e.g. checked out with --no-track
		// from a repo with core.logAllRefUpdates off) is not an error.
		r.reflogs[key] = nil
		return nil, nil
	}
	entries := make([]ReflogEntry, 0, len(lines))
	for _, line := range lines {
		hash, subject, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		entries = append(entries, ReflogEntry{Hash: refs.CommitHash(hash), Subject: subject})
	}
	r.reflogs[key] = entries
	return entries, nil
}

var checkoutEntryRe = regexp.MustCompile(`^HEAD@\{([0-9]+) [^}]+\}:checkout: moving from (.+) to (.+)$`)

// LatestCheckoutTimestamps scans the HEAD reflog for checkout entries
// and returns, per branch name, the unix timestamp of the most recent
// checkout onto it.
func (r *Repo) LatestCheckoutTimestamps(ctx context.Context) (map[string]int64, error) {
	if r.checkoutTimestamps != nil {
		return r.checkoutTimestamps, nil
	}
	lines, err := r.lines(ctx, "reflog", "show", "--format=%gd:%gs", "--date=raw")
	if err != nil {
		return nil, err
	}
	result := map[string]int64{}
	for _, line := range lines {
		match := checkoutEntryRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		ts, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}
		// Entries come latest first; only the latest occurrence for
		// any given branch is interesting.
		for _, branch := range []string{match[2], match[3]} {
			if _, seen := result[branch]; !seen {
				result[branch] = ts
			}
		}
	}
	r.checkoutTimestamps = result
	return result, nil
}

// UnixTimestampFromTimespec parses a human-friendly git timespec
// ("2 weeks ago", "2020-06-01") into a unix timestamp, leaning on
// git's own approxidate parser.
func (r *Repo) UnixTimestampFromTimespec(ctx context.Context, spec string) (int64, error) {
	out, err := r.output(ctx, "rev-parse", "--since="+spec)
	if err != nil {
		return 0, err
	}
	// Output has the form "--max-age=<timestamp>".
	_, value, found := strings.Cut(out, "=")
	if !found {
		return 0, &timespecError{spec}
	}
	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &timespecError{spec}
	}
	return ts, nil
}

type timespecError struct {
	spec string
}

func (e *timespecError) Error() string {
	return "cannot parse timespec: " + e.spec
}
