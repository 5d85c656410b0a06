package cmd

import (
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:     "edit",
	Aliases: []string{"e"},
	Short:   "Open the branch layout file in the editor",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := newEngine(ctx, false)
		if err != nil {
			return err
		}
		return state.EditLayout(ctx)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
