package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/machete"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var (
	slideOutDelete              bool
	slideOutDownForkPoint       string
	slideOutMerge               bool
	slideOutNoInteractiveRebase bool
	slideOutNoEditMerge         bool
	slideOutRemovedFromRemote   bool
)

var slideOutCmd = &cobra.Command{
	Use:   "slide-out [<branch>...]",
	Short: "Slide the given chain of branches out of the tree of branch dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}

		if slideOutRemovedFromRemote {
			return state.SlideOutRemovedFromRemote(ctx, slideOutDelete)
		}

		branches := make([]refs.LocalBranch, 0, len(args))
		for _, arg := range args {
			branch, err := refs.NewLocalBranch(arg)
			if err != nil {
				return err
			}
			branches = append(branches, branch)
		}
		return state.SlideOut(ctx, branches, machete.SlideOutOptions{
			Delete:              slideOutDelete,
			DownForkPoint:       refs.Revision(slideOutDownForkPoint),
			Merge:               slideOutMerge,
			NoInteractiveRebase: slideOutNoInteractiveRebase,
			NoEditMerge:         slideOutNoEditMerge,
		})
	},
}

func init() {
	slideOutCmd.Flags().BoolVarP(&slideOutDelete, "delete", "d", false,
		"delete the slid-out branches")
	slideOutCmd.Flags().StringVar(&slideOutDownForkPoint, "down-fork-point", "",
		"fork point for rebasing the child of the last slid-out branch")
	slideOutCmd.Flags().BoolVarP(&slideOutMerge, "merge", "M", false,
		"merge the new upstream into the children instead of rebasing them")
	slideOutCmd.Flags().BoolVar(&slideOutNoInteractiveRebase, "no-interactive-rebase", false,
		"run git rebase without --interactive")
	slideOutCmd.Flags().BoolVar(&slideOutNoEditMerge, "no-edit-merge", false,
		"skip opening the editor for merge commit messages")
	slideOutCmd.Flags().BoolVar(&slideOutRemovedFromRemote, "removed-from-remote", false,
		"slide out all branches whose counterpart was removed from the remote")
	rootCmd.AddCommand(slideOutCmd)
}
