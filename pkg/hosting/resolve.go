// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package hosting

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// GitInfo is the slice of the git gateway needed to resolve which
// provider repository the local repo corresponds to.
type GitInfo interface {
	ConfigValue(ctx context.Context, key string) (string, bool, error)
	Remotes(ctx context.Context) ([]string, error)
	RemoteURL(ctx context.Context, remote string) (string, error)
	CombinedRemote(ctx context.Context, branch refs.LocalBranch) (string, bool, error)
}

// ResolveDomain picks the provider domain: the explicit config key when
// set, the provider default otherwise.
func ResolveDomain(ctx context.Context, g GitInfo, spec Spec) (string, error) {
	domain, ok, err := g.ConfigValue(ctx, spec.ConfigKeys.Domain)
	if err != nil {
		return "", err
	}
	if ok && domain != "" {
		return domain, nil
	}
	return spec.DefaultDomain, nil
}

// ResolveOrgRepoAndRemote determines the effective (organization,
// repository, remote) triple: explicit git config keys first, then the
// remote URLs; ambiguity is resolved through the tracking data of
// branchForTracking (when given) and finally a remote named origin.
func ResolveOrgRepoAndRemote(ctx context.Context, g GitInfo, spec Spec, domain string,
	branchForTracking refs.LocalBranch) (OrgRepoAndRemote, error) {
	keys := spec.ConfigKeys
	remoteFromConfig, _, err := g.ConfigValue(ctx, keys.Remote)
	if err != nil {
		return OrgRepoAndRemote{}, err
	}
	orgFromConfig, _, err := g.ConfigValue(ctx, keys.Organization)
	if err != nil {
		return OrgRepoAndRemote{}, err
	}
	repoFromConfig, _, err := g.ConfigValue(ctx, keys.Repository)
	if err != nil {
		return OrgRepoAndRemote{}, err
	}

	remotes, err := g.Remotes(ctx)
	if err != nil {
		return OrgRepoAndRemote{}, err
	}
	if len(remotes) == 0 {
		return OrgRepoAndRemote{}, fmt.Errorf("no remotes defined for this repository (see `git remote`)")
	}
	urlForRemote := map[string]string{}
	for _, remote := range remotes {
		url, err := g.RemoteURL(ctx, remote)
		if err != nil {
			return OrgRepoAndRemote{}, err
		}
		urlForRemote[remote] = url
	}

	if orgFromConfig != "" && repoFromConfig == "" {
		return OrgRepoAndRemote{}, fmt.Errorf("`%s` git config key is present, but `%s` is missing; "+
			"both keys must be present to take effect", keys.Organization, keys.Repository)
	}
	if orgFromConfig == "" && repoFromConfig != "" {
		return OrgRepoAndRemote{}, fmt.Errorf("`%s` git config key is present, but `%s` is missing; "+
			"both keys must be present to take effect", keys.Repository, keys.Organization)
	}
	if remoteFromConfig != "" {
		if _, ok := urlForRemote[remoteFromConfig]; !ok {
			return OrgRepoAndRemote{}, fmt.Errorf("`%s` git config key points to `%s` remote, "+
				"but such remote does not exist", keys.Remote, remoteFromConfig)
		}
	}

	if remoteFromConfig != "" && orgFromConfig != "" && repoFromConfig != "" {
		return OrgRepoAndRemote{Organization: orgFromConfig, Repository: repoFromConfig, Remote: remoteFromConfig}, nil
	}

	if remoteFromConfig != "" {
		url := urlForRemote[remoteFromConfig]
		orgAndRepo, ok := OrgAndRepoFromURL(domain, url)
		if !ok {
			return OrgRepoAndRemote{}, fmt.Errorf("`%s` git config key points to `%s` remote, but its URL `%s` "+
				"does not correspond to a valid %s %s", keys.Remote, remoteFromConfig, url, spec.DisplayName, spec.RepositoryName)
		}
		return OrgRepoAndRemote{Organization: orgAndRepo.Organization, Repository: orgAndRepo.Repository,
			Remote: remoteFromConfig}, nil
	}

	if orgFromConfig != "" && repoFromConfig != "" {
		for _, remote := range remotes {
			url := urlForRemote[remote]
			if orgAndRepo, ok := OrgAndRepoFromURL(domain, url); ok &&
				orgAndRepo == (OrgAndRepo{Organization: orgFromConfig, Repository: repoFromConfig}) {
				return OrgRepoAndRemote{Organization: orgFromConfig, Repository: repoFromConfig, Remote: remote}, nil
			}
		}
		return OrgRepoAndRemote{}, fmt.Errorf("both `%s` and `%s` git config keys are defined, but no remote "+
			"seems to correspond to `%s/%s` (%s/%s) on %s.\nConsider pointing to the remote via `%s` config key",
			keys.Organization, keys.Repository, orgFromConfig, repoFromConfig,
			spec.OrganizationName, spec.RepositoryName, spec.DisplayName, keys.Remote)
	}

	matching := map[string]OrgRepoAndRemote{}
	for _, remote := range remotes {
		if orgAndRepo, ok := OrgAndRepoFromURL(domain, urlForRemote[remote]); ok {
			matching[remote] = OrgRepoAndRemote{Organization: orgAndRepo.Organization,
				Repository: orgAndRepo.Repository, Remote: remote}
		}
	}

	if len(matching) == 0 {
		return OrgRepoAndRemote{}, fmt.Errorf("remotes are defined for this repository, but none of them "+
			"seems to correspond to %s (see `git remote -v` for details).\n"+
			"It is possible that you are using a custom %s URL.\n"+
			"If that is the case, you can provide %s information explicitly via some or all of git config keys: %s",
			spec.DisplayName, spec.DisplayName, spec.RepositoryName, keys.ForLocatingRepoMessage())
	}
	if len(matching) == 1 {
		for _, result := range matching {
			return result, nil
		}
	}

	if branchForTracking != "" {
		if remote, ok, err := g.CombinedRemote(ctx, branchForTracking); err != nil {
			return OrgRepoAndRemote{}, err
		} else if ok {
			if result, found := matching[remote]; found {
				return result, nil
			}
		}
	}

	if result, found := matching["origin"]; found {
		return result, nil
	}

	names := make([]string, 0, len(matching))
	for remote := range matching {
		names = append(names, remote)
	}
	sort.Strings(names)
	return OrgRepoAndRemote{}, fmt.Errorf("multiple non-origin remotes correspond to %s in this repository: "+
		"%s -> aborting.\nYou can select the %s by providing some or all of git config keys: %s",
		spec.DisplayName, strings.Join(names, ", "), spec.RepositoryName, keys.ForLocatingRepoMessage())
}
