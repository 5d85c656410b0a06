// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package hosting

import (
	"regexp"
	"strings"
)

// remoteURLPatterns builds the regexes matching the ways a provider
// repository URL can be spelled in `git remote -v`.
//
// The same patterns work for both GitHub and GitLab; the only
// difference is that a GitLab "namespace" may consist of multiple
// /-separated segments, which the (.+) group already allows.
func remoteURLPatterns(domain string) []*regexp.Regexp {
	domainRe := regexp.QuoteMeta(domain)
	const orgRepo = `(.+)/([^/]+)`
	return []*regexp.Regexp{
		regexp.MustCompile(`^https://(?:.+@)?` + domainRe + `/` + orgRepo + `$`),
		// A rare way to express an SSH URL.
		regexp.MustCompile(`^ssh://.+@` + domainRe + `/` + orgRepo + `$`),
		// The common SSH form; the user before @ is typically git,
		// but doesn't need to be.
		regexp.MustCompile(`^[^:/]+@` + domainRe + `:` + orgRepo + `$`),
	}
}

// OrgAndRepoFromURL extracts the organization and repository from a
// remote URL, when the URL belongs to the given domain.
func OrgAndRepoFromURL(domain, url string) (OrgAndRepo, bool) {
	// Neither GitHub nor GitLab allows a trailing `.git` suffix in the
	// actual repository name, so normalizing to a single suffix is safe.
	if !strings.HasSuffix(url, ".git") {
		url += ".git"
	}
	for _, pattern := range remoteURLPatterns(domain) {
		if match := pattern.FindStringSubmatch(url); match != nil {
			repo := strings.TrimSuffix(match[2], ".git")
			return OrgAndRepo{Organization: match[1], Repository: repo}, true
		}
	}
	return OrgAndRepo{}, false
}

// IsMatchingRemoteURL reports whether url belongs to the given domain.
func IsMatchingRemoteURL(domain, url string) bool {
	_, ok := OrgAndRepoFromURL(domain, url)
	return ok
}
