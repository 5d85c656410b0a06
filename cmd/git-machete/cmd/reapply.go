package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var reapplyForkPoint string

var reapplyCmd = &cobra.Command{
	Use:   "reapply",
	Short: "Interactively rebase the current branch onto its own fork point",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}
		return state.Reapply(ctx, refs.Revision(reapplyForkPoint))
	},
}

func init() {
	reapplyCmd.Flags().StringVarP(&reapplyForkPoint, "fork-point", "f", "",
		"fork point override for the rebase")
	rootCmd.AddCommand(reapplyCmd)
}
