package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/hosting"
	"github.com/gizzahub/gzh-cli-machete/pkg/machete"
)

var (
	cleanCheckoutMyOpenPRs bool
	cleanYes               bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete unmanaged branches and slide out branches removed from the remote",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, cleanYes, false)
		if err != nil {
			return err
		}
		if cleanCheckoutMyOpenPRs {
			if _, err := state.InitHosting(ctx, hosting.GitHubSpec, newGitHubClient, ""); err != nil {
				return err
			}
			if err := state.CheckoutPRs(ctx, nil, false, true, ""); err != nil {
				return err
			}
		}
		if err := state.SlideOutRemovedFromRemote(ctx, false); err != nil {
			return err
		}
		return state.DeleteUnmanaged(ctx, machete.SquashMergeDetectionNone)
	},
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanCheckoutMyOpenPRs, "checkout-my-open-prs", "H", false,
		"check out the current user's open GitHub PRs first")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "delete without asking")
	rootCmd.AddCommand(cleanCmd)
}
