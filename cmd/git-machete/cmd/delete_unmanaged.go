package cmd

import (
	"github.com/spf13/cobra"
)

var (
	deleteUnmanagedYes                 bool
	deleteUnmanagedSquashMergeDetect   string
	deleteUnmanagedNoDetectSquashMerge bool
)

var deleteUnmanagedCmd = &cobra.Command{
	Use:   "delete-unmanaged",
	Short: "Delete the local branches that are not present in the branch layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, deleteUnmanagedYes, false)
		if err != nil {
			return err
		}
		mode, err := squashMergeDetectionMode(ctx, state,
			deleteUnmanagedSquashMergeDetect, deleteUnmanagedNoDetectSquashMerge)
		if err != nil {
			return err
		}
		return state.DeleteUnmanaged(ctx, mode)
	},
}

func init() {
	deleteUnmanagedCmd.Flags().BoolVarP(&deleteUnmanagedYes, "yes", "y", false,
		"delete without asking")
	deleteUnmanagedCmd.Flags().StringVar(&deleteUnmanagedSquashMergeDetect, "squash-merge-detection", "",
		"one of: none, simple, exact")
	deleteUnmanagedCmd.Flags().BoolVar(&deleteUnmanagedNoDetectSquashMerge, "no-detect-squash-merges", false,
		"only consider explicit merges (deprecated)")
	rootCmd.AddCommand(deleteUnmanagedCmd)
}
