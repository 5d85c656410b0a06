package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/machete"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var showBranch string

var showCmd = &cobra.Command{
	Use:   "show <direction>",
	Short: "Print the branch in the given direction of the tree",
	Long: `Print the branch in the given direction of the tree of branch
dependencies, without checking it out. Directions: up, down, first,
last, next, prev, root, current.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}
		direction, err := machete.ParseDirection(args[0])
		if err != nil {
			return err
		}
		var branch refs.LocalBranch
		if showBranch != "" {
			branch, err = refs.NewLocalBranch(showBranch)
		} else {
			branch, err = state.Git.CurrentBranch(ctx)
		}
		if err != nil {
			return err
		}
		return state.Show(ctx, direction, branch, nil)
	},
}

func init() {
	showCmd.Flags().StringVarP(&showBranch, "branch", "b", "",
		"branch to navigate from (default: current)")
	rootCmd.AddCommand(showCmd)
}
