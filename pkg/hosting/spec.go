// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package hosting

// ConfigKeys are the git config keys through which a provider's
// repository location and behavior can be pinned down explicitly.
type ConfigKeys struct {
	Domain                            string
	Organization                      string
	Repository                        string
	Remote                            string
	AnnotateWithURLs                  string
	ForceDescriptionFromCommitMessage string
	PRDescriptionIntroStyle           string
}

// Spec captures the provider-specific vocabulary and defaults, so that
// the shared flows can speak of "PR #1, base branch, organization" on
// GitHub and "MR !1, target branch, namespace" on GitLab without
// branching on the provider.
type Spec struct {
	Name            string // "github" / "gitlab"
	DisplayName     string // "GitHub" / "GitLab"
	DefaultDomain   string
	BaseBranchName  string // "base" / "target"
	HeadBranchName  string // "head" / "source"
	PRShortName     string // "PR" / "MR"
	PRShortNameArticle string
	PRFullName      string // "pull request" / "merge request"
	PROrdinalChar   string // "#" / "!"
	OrganizationName string // "organization" / "namespace"
	RepositoryName  string // "repository" / "project"
	MacheteCommand  string // the git machete sub-command name
	TokenEnvVar     string
	TokenFileName   string // file in the home directory
	CLITokenTools   []string // CLIs whose auth stores are consulted

	// IntroBrBeforeBranches and IntroExplicitTitle tweak the generated
	// PR description intro to match each provider's rendering quirks.
	IntroBrBeforeBranches bool
	IntroExplicitTitle    bool

	ConfigKeys ConfigKeys
}

// GitHubSpec is the GitHub vocabulary.
var GitHubSpec = Spec{
	Name:               "github",
	DisplayName:        "GitHub",
	DefaultDomain:      "github.com",
	BaseBranchName:     "base",
	HeadBranchName:     "head",
	PRShortName:        "PR",
	PRShortNameArticle: "a",
	PRFullName:         "pull request",
	PROrdinalChar:      "#",
	OrganizationName:   "organization",
	RepositoryName:     "repository",
	MacheteCommand:     "github",
	TokenEnvVar:        "GITHUB_TOKEN",
	TokenFileName:      ".github-token",
	CLITokenTools:      []string{"gh", "hub"},
	ConfigKeys: ConfigKeys{
		Domain:                            "machete.github.domain",
		Organization:                      "machete.github.organization",
		Repository:                        "machete.github.repository",
		Remote:                            "machete.github.remote",
		AnnotateWithURLs:                  "machete.github.annotateWithUrls",
		ForceDescriptionFromCommitMessage: "machete.github.forceDescriptionFromCommitMessage",
		PRDescriptionIntroStyle:           "machete.github.prDescriptionIntroStyle",
	},
}

// GitLabSpec is the GitLab vocabulary.
var GitLabSpec = Spec{
	Name:               "gitlab",
	DisplayName:        "GitLab",
	DefaultDomain:      "gitlab.com",
	BaseBranchName:     "target",
	HeadBranchName:     "source",
	PRShortName:        "MR",
	PRShortNameArticle: "an",
	PRFullName:         "merge request",
	PROrdinalChar:      "!",
	OrganizationName:   "namespace",
	RepositoryName:     "project",
	MacheteCommand:     "gitlab",
	TokenEnvVar:        "GITLAB_TOKEN",
	TokenFileName:      ".gitlab-token",
	CLITokenTools:      []string{"glab"},
	// GitLab renders the branch line of the intro on the same visual
	// line unless an explicit <br> is present, and lists look better
	// with the MR title spelled out.
	IntroBrBeforeBranches: true,
	IntroExplicitTitle:    true,
	ConfigKeys: ConfigKeys{
		Domain:                            "machete.gitlab.domain",
		Organization:                      "machete.gitlab.organization",
		Repository:                        "machete.gitlab.repository",
		Remote:                            "machete.gitlab.remote",
		AnnotateWithURLs:                  "machete.gitlab.annotateWithUrls",
		ForceDescriptionFromCommitMessage: "machete.gitlab.forceDescriptionFromCommitMessage",
		PRDescriptionIntroStyle:           "machete.gitlab.prDescriptionIntroStyle",
	},
}

// ForLocatingRepoMessage lists the config keys a user can set to locate
// the repository explicitly.
func (k ConfigKeys) ForLocatingRepoMessage() string {
	return "`" + k.Domain + "`, `" + k.Organization + "`, `" + k.Repository + "`, `" + k.Remote + "`"
}
