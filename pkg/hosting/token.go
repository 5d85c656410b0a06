// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package hosting

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Token is an API token together with where it was found, so error
// messages can tell the user which provider to fix.
type Token struct {
	Value    string
	Provider string
}

// TokenForDomain walks the discovery chain for the given provider spec
// and domain; the first non-empty hit wins:
//  1. the <PROVIDER>_TOKEN environment variable,
//  2. the ~/.<provider>-token file,
//  3. the auth store of the provider's CLI tools (gh/hub, glab).
func TokenForDomain(ctx context.Context, spec Spec, domain string) (Token, bool) {
	if token, ok := tokenFromEnv(spec); ok {
		return token, true
	}
	if token, ok := tokenFromHomeFile(spec, domain); ok {
		return token, true
	}
	for _, tool := range spec.CLITokenTools {
		var token Token
		var ok bool
		switch tool {
		case "gh":
			token, ok = tokenFromGh(ctx, domain)
		case "hub":
			token, ok = tokenFromHubConfig(domain)
		case "glab":
			token, ok = tokenFromGlabConfig(domain)
		}
		if ok {
			return token, true
		}
	}
	return Token{}, false
}

func tokenFromEnv(spec Spec) (Token, bool) {
	value := os.Getenv(spec.TokenEnvVar)
	if value == "" {
		return Token{}, false
	}
	return Token{Value: value, Provider: "`" + spec.TokenEnvVar + "` environment variable"}, true
}

// tokenFromHomeFile reads ~/.<provider>-token, a file of the form:
//
//	ghp_mytoken_for_github_com
//	ghp_myothertoken_for_git_example_org git.example.org
//
// A bare token on a line applies to the default domain; a token
// followed by a domain applies to that domain.
func tokenFromHomeFile(spec Spec, domain string) (Token, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Token{}, false
	}
	path := filepath.Join(home, spec.TokenFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Token{}, false
	}
	provider := "auth token for " + domain + " from `~/" + spec.TokenFileName + "`"
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		switch {
		case len(fields) == 1 && domain == spec.DefaultDomain:
			return Token{Value: fields[0], Provider: provider}, true
		case len(fields) >= 2 && fields[1] == domain:
			return Token{Value: fields[0], Provider: provider}, true
		}
	}
	return Token{}, false
}

// tokenFromGh shells out to the gh GitHub CLI.
func tokenFromGh(ctx context.Context, domain string) (Token, bool) {
	gh, err := exec.LookPath("gh")
	if err != nil {
		return Token{}, false
	}
	out, err := exec.CommandContext(ctx, gh, "auth", "token", "--hostname", domain).Output()
	if err != nil {
		return Token{}, false
	}
	value := strings.TrimSpace(string(out))
	if value == "" {
		return Token{}, false
	}
	return Token{Value: value, Provider: "auth token for " + domain + " from `gh` GitHub CLI"}, true
}

// tokenFromHubConfig reads ~/.config/hub, a YAML file of the form:
//
//	github.com:
//	- user: alice
//	  oauth_token: ghp_...
//	  protocol: https
func tokenFromHubConfig(domain string) (Token, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Token{}, false
	}
	data, err := os.ReadFile(filepath.Join(home, ".config", "hub"))
	if err != nil {
		return Token{}, false
	}
	var config map[string][]struct {
		User       string `yaml:"user"`
		OAuthToken string `yaml:"oauth_token"`
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Token{}, false
	}
	for _, entry := range config[domain] {
		if entry.OAuthToken != "" {
			return Token{Value: entry.OAuthToken,
				Provider: "auth token for " + domain + " from `hub` GitHub CLI"}, true
		}
	}
	return Token{}, false
}

// tokenFromGlabConfig reads the glab GitLab CLI config
// (~/.config/glab-cli/config.yml), of the form:
//
//	hosts:
//	  gitlab.com:
//	    token: glpat-...
func tokenFromGlabConfig(domain string) (Token, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Token{}, false
	}
	data, err := os.ReadFile(filepath.Join(home, ".config", "glab-cli", "config.yml"))
	if err != nil {
		return Token{}, false
	}
	var config struct {
		Hosts map[string]struct {
			Token string `yaml:"token"`
		} `yaml:"hosts"`
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Token{}, false
	}
	if host, ok := config.Hosts[domain]; ok && host.Token != "" {
		return Token{Value: host.Token,
			Provider: "auth token for " + domain + " from `glab` GitLab CLI"}, true
	}
	return Token{}, false
}

// TokenProvidersMessage describes, for error messages, where a token
// for the provider may come from.
func TokenProvidersMessage(spec Spec) string {
	parts := []string{
		"`" + spec.TokenEnvVar + "` environment variable",
		"`~/" + spec.TokenFileName + "` file",
	}
	for _, tool := range spec.CLITokenTools {
		parts = append(parts, "`"+tool+"` CLI auth store")
	}
	return strings.Join(parts, ", ")
}
