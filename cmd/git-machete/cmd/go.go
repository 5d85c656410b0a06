package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/machete"
)

var goCmd = &cobra.Command{
	Use:     "go [<direction>]",
	Aliases: []string{"g"},
	Short:   "Check out the branch in the given direction of the tree",
	Long: `Check out the branch in the given direction of the tree of branch
dependencies. Directions: up, down, first, last, next, prev, root.
With no direction, an interactive branch picker opens.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			// Interactive pick over all managed branches.
			managed := state.Layout.Managed()
			if len(managed) == 0 {
				return state.ExpectAtLeastOneManaged()
			}
			destination, err := pickBranch("Select the branch to check out")(managed)
			if err != nil {
				return err
			}
			return state.Git.Checkout(ctx, destination)
		}

		direction, err := machete.ParseDirection(args[0])
		if err != nil {
			return err
		}
		return state.Go(ctx, direction, pickBranch("Select the downstream branch"))
	},
}

func init() {
	rootCmd.AddCommand(goCmd)
}
