package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/hosting"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var (
	annoBranch        string
	annoSyncGitHubPRs bool
	annoSyncGitLabMRs bool
)

var annoCmd = &cobra.Command{
	Use:   "anno [<annotation words>...]",
	Short: "Display or set the annotation of a branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}

		if annoSyncGitHubPRs && annoSyncGitLabMRs {
			return fmt.Errorf("options --sync-github-prs and --sync-gitlab-mrs cannot be combined")
		}
		if annoSyncGitHubPRs || annoSyncGitLabMRs {
			spec, factory := hosting.GitHubSpec, newGitHubClient
			if annoSyncGitLabMRs {
				spec, factory = hosting.GitLabSpec, newGitLabClient
			}
			if _, err := state.InitHosting(ctx, spec, factory, ""); err != nil {
				return err
			}
			return state.AnnoPRs(ctx)
		}

		var branch refs.LocalBranch
		if annoBranch != "" {
			branch, err = refs.NewLocalBranch(annoBranch)
			if err != nil {
				return err
			}
		} else {
			branch, err = state.Git.CurrentBranch(ctx)
			if err != nil {
				return err
			}
		}
		var words []string
		if cmd.Flags().NArg() > 0 {
			words = args
		}
		return state.Anno(branch, words)
	},
}

func init() {
	annoCmd.Flags().StringVarP(&annoBranch, "branch", "b", "", "branch to annotate (default: current)")
	annoCmd.Flags().BoolVarP(&annoSyncGitHubPRs, "sync-github-prs", "H", false,
		"sync annotations with GitHub PR numbers")
	annoCmd.Flags().BoolVarP(&annoSyncGitLabMRs, "sync-gitlab-mrs", "L", false,
		"sync annotations with GitLab MR numbers")
	rootCmd.AddCommand(annoCmd)
}
