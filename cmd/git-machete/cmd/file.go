package cmd

import (
	"github.com/spf13/cobra"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Print the location of the branch layout file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := newEngine(cmd.Context(), false)
		if err != nil {
			return err
		}
		state.Printf("%s\n", state.LayoutPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fileCmd)
}
