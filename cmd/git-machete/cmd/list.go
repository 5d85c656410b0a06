package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var listCmd = &cobra.Command{
	Use:   "list <category>",
	Short: "List the branches of a given category (mostly for scripts)",
	Long: `List the branches of a given category, one per line.
Categories: managed, slidable, slidable-after <branch>, unmanaged,
with-overridden-fork-point.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}

		var branches []refs.LocalBranch
		switch args[0] {
		case "managed":
			branches = state.Layout.Managed()
		case "slidable":
			branches = state.SlidableBranches()
		case "slidable-after":
			if len(args) < 2 {
				return fmt.Errorf("`list slidable-after` requires an extra <branch> argument")
			}
			branch, err := refs.NewLocalBranch(args[1])
			if err != nil {
				return err
			}
			branches = state.SlidableAfter(branch)
		case "unmanaged":
			branches, err = state.UnmanagedBranches(ctx)
			if err != nil {
				return err
			}
		case "with-overridden-fork-point":
			branches, err = state.BranchesWithOverriddenForkPoint(ctx)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("invalid category: %s; valid categories are managed, slidable, "+
				"slidable-after, unmanaged, with-overridden-fork-point", args[0])
		}
		for _, branch := range branches {
			state.Printf("%s\n", branch)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
