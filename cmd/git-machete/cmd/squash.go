package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var squashForkPoint string

var squashCmd = &cobra.Command{
	Use:   "squash",
	Short: "Squash the unique history of the current branch into a single commit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}
		return state.Squash(ctx, refs.Revision(squashForkPoint))
	},
}

func init() {
	squashCmd.Flags().StringVarP(&squashForkPoint, "fork-point", "f", "",
		"start of the range of commits to squash")
	rootCmd.AddCommand(squashCmd)
}
