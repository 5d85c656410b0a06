// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package hosting

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITLAB_TOKEN", "")
	// Keep the CLI fallbacks out of the picture.
	t.Setenv("PATH", home)
	return home
}

func TestTokenFromEnv(t *testing.T) {
	isolateHome(t)
	t.Setenv("GITHUB_TOKEN", "ghp_from_env")

	token, ok := TokenForDomain(context.Background(), GitHubSpec, "github.com")
	if !ok {
		t.Fatal("token not found")
	}
	if token.Value != "ghp_from_env" {
		t.Errorf("token = %q, want the env one", token.Value)
	}
}

func TestTokenFromHomeFile(t *testing.T) {
	home := isolateHome(t)
	content := "ghp_default_domain\n" +
		"ghp_for_example git.example.org\n"
	if err := os.WriteFile(filepath.Join(home, ".github-token"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	token, ok := TokenForDomain(context.Background(), GitHubSpec, "github.com")
	if !ok || token.Value != "ghp_default_domain" {
		t.Errorf("token for default domain = %+v, want ghp_default_domain", token)
	}

	token, ok = TokenForDomain(context.Background(), GitHubSpec, "git.example.org")
	if !ok || token.Value != "ghp_for_example" {
		t.Errorf("token for custom domain = %+v, want ghp_for_example", token)
	}

	if _, ok := TokenForDomain(context.Background(), GitHubSpec, "unknown.example.com"); ok {
		t.Error("no token expected for an unlisted domain")
	}
}

func TestTokenEnvTakesPrecedenceOverFile(t *testing.T) {
	home := isolateHome(t)
	t.Setenv("GITHUB_TOKEN", "ghp_env_wins")
	if err := os.WriteFile(filepath.Join(home, ".github-token"), []byte("ghp_from_file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	token, _ := TokenForDomain(context.Background(), GitHubSpec, "github.com")
	if token.Value != "ghp_env_wins" {
		t.Errorf("token = %q, the env var must win", token.Value)
	}
}

func TestTokenFromHubConfig(t *testing.T) {
	home := isolateHome(t)
	hubConfig := "github.com:\n- user: alice\n  oauth_token: ghp_from_hub\n  protocol: https\n"
	if err := os.MkdirAll(filepath.Join(home, ".config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".config", "hub"), []byte(hubConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	token, ok := TokenForDomain(context.Background(), GitHubSpec, "github.com")
	if !ok || token.Value != "ghp_from_hub" {
		t.Errorf("token = %+v, want the hub CLI one", token)
	}
}

func TestTokenFromGlabConfig(t *testing.T) {
	home := isolateHome(t)
	glabConfig := "hosts:\n  gitlab.com:\n    token: glpat_from_glab\n"
	if err := os.MkdirAll(filepath.Join(home, ".config", "glab-cli"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".config", "glab-cli", "config.yml"), []byte(glabConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	token, ok := TokenForDomain(context.Background(), GitLabSpec, "gitlab.com")
	if !ok || token.Value != "glpat_from_glab" {
		t.Errorf("token = %+v, want the glab CLI one", token)
	}
}
