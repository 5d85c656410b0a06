package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/machete"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var (
	updateMerge               bool
	updateForkPoint           string
	updateNoInteractiveRebase bool
	updateNoEditMerge         bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rebase the current branch onto its parent (or merge the parent into it)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}
		return state.Update(ctx, machete.UpdateOptions{
			Merge:               updateMerge,
			ForkPoint:           refs.Revision(updateForkPoint),
			NoInteractiveRebase: updateNoInteractiveRebase,
			NoEditMerge:         updateNoEditMerge,
		})
	},
}

func init() {
	updateCmd.Flags().BoolVarP(&updateMerge, "merge", "M", false,
		"update by merge rather than rebase")
	updateCmd.Flags().StringVarP(&updateForkPoint, "fork-point", "f", "",
		"fork point override for the rebase")
	updateCmd.Flags().BoolVar(&updateNoInteractiveRebase, "no-interactive-rebase", false,
		"run git rebase without --interactive")
	updateCmd.Flags().BoolVar(&updateNoEditMerge, "no-edit-merge", false,
		"skip opening the editor for merge commit messages")
	rootCmd.AddCommand(updateCmd)
}
