// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package git

import (
	"context"
	"errors"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/internal/gitcmd"
)

func (r *Repo) loadConfig(ctx context.Context) error {
	if r.configLoaded {
		return nil
	}
	lines, err := r.lines(ctx, "config", "--list", "--null")
	if err != nil {
		// No config at all is fine.
		r.configLoaded = true
		return nil
	}
	// With --null, entries are NUL-separated and key/value split by \n.
	joined := strings.Join(lines, "\n")
	for _, entry := range strings.Split(joined, "\x00") {
		if entry == "" {
			continue
		}
		key, value, _ := strings.Cut(entry, "\n")
		// --list lowercases the section and variable names of a key
		// but keeps the case of its subsection.
		r.configEntries[key] = value
	}
	r.configLoaded = true
	return nil
}

// ConfigValue returns the value of a git config key, if set.
func (r *Repo) ConfigValue(ctx context.Context, key string) (string, bool, error) {
	if err := r.loadConfig(ctx); err != nil {
		return "", false, err
	}
	// Match the form --list produces: the section and variable names
	// are case-insensitive, a subsection (between them) is not.
	normalized := strings.ToLower(key)
	if first, last := strings.Index(key, "."), strings.LastIndex(key, "."); first >= 0 && first != last {
		normalized = strings.ToLower(key[:first]) + key[first:last] + strings.ToLower(key[last:])
	}
	value, ok := r.configEntries[normalized]
	return value, ok, nil
}

// BoolConfig interprets a config key as a boolean, returning
// defaultValue when the key is unset or unparseable.
func (r *Repo) BoolConfig(ctx context.Context, key string, defaultValue bool) (bool, error) {
	value, ok, err := r.ConfigValue(ctx, key)
	if err != nil || !ok {
		return defaultValue, err
	}
	switch strings.ToLower(value) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return defaultValue, nil
}

// SetConfig writes a repository-local config key.
func (r *Repo) SetConfig(ctx context.Context, key, value string) error {
	return r.run(ctx, nil, "config", "--", key, value)
}

// UnsetConfig removes a repository-local config key. Unsetting a key
// that is not set is not an error.
func (r *Repo) UnsetConfig(ctx context.Context, key string) error {
	err := r.run(ctx, nil, "config", "--unset", key)
	var gitErr *gitcmd.GitError
	if errors.As(err, &gitErr) && gitErr.ExitCode == 5 {
		return nil
	}
	return err
}

// ConfigKeysWithPrefix lists the set config keys starting with prefix.
func (r *Repo) ConfigKeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := r.loadConfig(ctx); err != nil {
		return nil, err
	}
	lowered := strings.ToLower(prefix)
	var keys []string
	for key := range r.configEntries {
		if strings.HasPrefix(key, lowered) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
