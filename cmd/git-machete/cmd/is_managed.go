package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var isManagedCmd = &cobra.Command{
	Use:   "is-managed [<branch>]",
	Short: "Check if the current branch is managed (mostly for scripts)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}
		branch, err := branchArg(ctx, state, args)
		if err != nil {
			return err
		}
		if !state.Layout.IsManaged(branch) {
			return fmt.Errorf("branch %s is not managed", branch)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(isManagedCmd)
}
