package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/hosting"
	"github.com/gizzahub/gzh-cli-machete/pkg/hosting/github"
	"github.com/gizzahub/gzh-cli-machete/pkg/hosting/gitlab"
	"github.com/gizzahub/gzh-cli-machete/pkg/machete"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// newGitHubClient is the machete.ClientFactory for GitHub.
func newGitHubClient(ctx context.Context, domain, organization, repository, token string) (hosting.Client, error) {
	return github.NewClient(ctx, domain, organization, repository, token)
}

// newGitLabClient is the machete.ClientFactory for GitLab.
func newGitLabClient(ctx context.Context, domain, organization, repository, token string) (hosting.Client, error) {
	return gitlab.NewClient(ctx, domain, organization, repository, token)
}

// hostingCommandSet builds the per-provider sub-command tree (github/
// gitlab); the two differ only in vocabulary and client factory.
func hostingCommandSet(spec hosting.Spec, factory machete.ClientFactory) *cobra.Command {
	short := strings.ToLower(spec.PRShortName)  // "pr" / "mr"
	plural := short + "s"

	providerCmd := &cobra.Command{
		Use:   spec.MacheteCommand,
		Short: fmt.Sprintf("Create, retarget and check out %s %ss", spec.DisplayName, spec.PRShortName),
	}

	var (
		createDraft          bool
		createTitle          string
		createYes            bool
		createUpdateRelated  bool
		retargetBranch       string
		retargetIgnoreMissing bool
		retargetUpdateRelated bool
		checkoutAll          bool
		checkoutMine         bool
		checkoutBy           string
		updateDescsAll       bool
		updateDescsBy        string
		updateDescsMine      bool
		updateDescsRelated   bool
	)

	withHosting := func(ctx context.Context, yes bool, branchForTracking refs.LocalBranch) (*machete.State, error) {
		state, err := loadedEngine(ctx, yes, false)
		if err != nil {
			return nil, err
		}
		if _, err := state.InitHosting(ctx, spec, factory, branchForTracking); err != nil {
			return nil, err
		}
		return state, nil
	}

	createCmd := &cobra.Command{
		Use:   fmt.Sprintf("create-%s", short),
		Short: fmt.Sprintf("Create %s %s from the current branch to its parent", spec.PRShortNameArticle, spec.PRShortName),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := loadedEngine(ctx, createYes, false)
			if err != nil {
				return err
			}
			head, err := state.Git.CurrentBranch(ctx)
			if err != nil {
				return err
			}
			if err := state.ExpectInManaged(head); err != nil {
				return err
			}
			if _, err := state.InitHosting(ctx, spec, factory, head); err != nil {
				return err
			}
			return state.CreatePullRequest(ctx, head, machete.CreatePROptions{
				Draft:                     createDraft,
				Title:                     createTitle,
				UpdateRelatedDescriptions: createUpdateRelated,
			})
		},
	}
	createCmd.Flags().BoolVar(&createDraft, "draft", false,
		fmt.Sprintf("create the %s as draft", spec.PRShortName))
	createCmd.Flags().StringVar(&createTitle, "title", "",
		fmt.Sprintf("title of the %s (default: subject of the first unique commit)", spec.PRShortName))
	createCmd.Flags().BoolVarP(&createYes, "yes", "y", false, "answer y to all prompts")
	createCmd.Flags().BoolVarP(&createUpdateRelated, "update-related-descriptions", "U", false,
		fmt.Sprintf("update the descriptions of related %ss too", spec.PRShortName))

	retargetCmd := &cobra.Command{
		Use:   fmt.Sprintf("retarget-%s", short),
		Short: fmt.Sprintf("Set the %s of the current branch's %s to its parent", spec.BaseBranchName, spec.PRShortName),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var head refs.LocalBranch
			var err error
			if retargetBranch != "" {
				head, err = refs.NewLocalBranch(retargetBranch)
				if err != nil {
					return err
				}
			}
			state, err := withHosting(ctx, false, head)
			if err != nil {
				return err
			}
			if head == "" {
				head, err = state.Git.CurrentBranch(ctx)
				if err != nil {
					return err
				}
			}
			if err := state.ExpectInManaged(head); err != nil {
				return err
			}
			return state.RetargetPullRequest(ctx, head, retargetIgnoreMissing, retargetUpdateRelated)
		},
	}
	retargetCmd.Flags().StringVarP(&retargetBranch, "branch", "b", "",
		"branch to retarget for (default: current)")
	retargetCmd.Flags().BoolVar(&retargetIgnoreMissing, "ignore-if-missing", false,
		fmt.Sprintf("only warn when the branch has no %s", spec.PRShortName))
	retargetCmd.Flags().BoolVarP(&retargetUpdateRelated, "update-related-descriptions", "U", false,
		fmt.Sprintf("update the descriptions of related %ss too", spec.PRShortName))

	restackCmd := &cobra.Command{
		Use:   fmt.Sprintf("restack-%s", short),
		Short: fmt.Sprintf("Update the current branch and force-push it into its %s, toggling draft status", spec.PRShortName),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			head := refs.LocalBranch("")
			state, err := withHosting(ctx, false, head)
			if err != nil {
				return err
			}
			return state.RestackPullRequest(ctx)
		},
	}

	checkoutCmd := &cobra.Command{
		Use:   fmt.Sprintf("checkout-%s [<%s number>...]", plural, short),
		Short: fmt.Sprintf("Check out the given %ss, including their chain of %s %ss", spec.PRShortName, spec.BaseBranchName, spec.PRShortName),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := withHosting(ctx, false, "")
			if err != nil {
				return err
			}
			numbers := make([]int, 0, len(args))
			for _, arg := range args {
				number, err := strconv.Atoi(strings.TrimLeft(arg, spec.PROrdinalChar))
				if err != nil {
					return fmt.Errorf("invalid %s number: %s", spec.PRShortName, arg)
				}
				numbers = append(numbers, number)
			}
			return state.CheckoutPRs(ctx, numbers, checkoutAll, checkoutMine, checkoutBy)
		},
	}
	checkoutCmd.Flags().BoolVar(&checkoutAll, "all", false,
		fmt.Sprintf("check out all open %ss", spec.PRShortName))
	checkoutCmd.Flags().BoolVar(&checkoutMine, "mine", false,
		fmt.Sprintf("check out the current user's open %ss", spec.PRShortName))
	checkoutCmd.Flags().StringVar(&checkoutBy, "by", "",
		fmt.Sprintf("check out open %ss authored by the given user", spec.PRShortName))

	annoCmd := &cobra.Command{
		Use:   fmt.Sprintf("anno-%s", plural),
		Short: fmt.Sprintf("Annotate the managed branches with their %s numbers", spec.PRShortName),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := withHosting(ctx, false, "")
			if err != nil {
				return err
			}
			return state.AnnoPRs(ctx)
		},
	}

	updateDescsCmd := &cobra.Command{
		Use:   fmt.Sprintf("update-%s-descriptions", short),
		Short: fmt.Sprintf("Refresh the generated intro sections of %s descriptions", spec.PRShortName),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := withHosting(ctx, false, "")
			if err != nil {
				return err
			}
			return state.UpdatePullRequestDescriptions(ctx, machete.UpdatePRDescriptionsOptions{
				All:     updateDescsAll,
				By:      updateDescsBy,
				Mine:    updateDescsMine,
				Related: updateDescsRelated,
			})
		},
	}
	updateDescsCmd.Flags().BoolVar(&updateDescsAll, "all", false, "update all open ones")
	updateDescsCmd.Flags().StringVar(&updateDescsBy, "by", "", "update those authored by the given user")
	updateDescsCmd.Flags().BoolVar(&updateDescsMine, "mine", false, "update the current user's")
	updateDescsCmd.Flags().BoolVar(&updateDescsRelated, "related", false,
		"update those related to the current branch's")

	providerCmd.AddCommand(createCmd, retargetCmd, restackCmd, checkoutCmd, annoCmd, updateDescsCmd)
	return providerCmd
}

func init() {
	rootCmd.AddCommand(hostingCommandSet(hosting.GitHubSpec, newGitHubClient))
	rootCmd.AddCommand(hostingCommandSet(hosting.GitLabSpec, newGitLabClient))
}
