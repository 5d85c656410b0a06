package cmd

import (
	"github.com/spf13/cobra"
)

var advanceYes bool

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Fast-forward the current branch to match its child branch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, advanceYes, false)
		if err != nil {
			return err
		}
		return state.Advance(ctx,
			pickBranch("Select the downstream branch to fast-forward towards"))
	},
}

func init() {
	advanceCmd.Flags().BoolVarP(&advanceYes, "yes", "y", false, "answer y to all prompts")
	rootCmd.AddCommand(advanceCmd)
}
