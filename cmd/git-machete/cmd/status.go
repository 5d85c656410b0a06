package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/machete"
)

var (
	statusListCommits           bool
	statusListCommitsWithHashes bool
	statusNoDetectSquashMerges  bool
	statusSquashMergeDetection  string
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"s"},
	Short:   "Display the tree of branch dependencies with sync status",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, true)
		if err != nil {
			return err
		}
		if err := state.ExpectAtLeastOneManaged(); err != nil {
			return err
		}
		mode, err := squashMergeDetectionMode(ctx, state,
			statusSquashMergeDetection, statusNoDetectSquashMerges)
		if err != nil {
			return err
		}
		return state.Status(ctx, machete.StatusOptions{
			ListCommits:           statusListCommits || statusListCommitsWithHashes,
			ListCommitsWithHashes: statusListCommitsWithHashes,
			SquashMergeDetection:  mode,
			WarnWhenForkPointOff:  true,
		})
	},
}

// squashMergeDetectionMode resolves the effective detection mode from
// the command line, falling back to git config and the default.
func squashMergeDetectionMode(ctx context.Context, state *machete.State,
	flagValue string, noDetect bool) (machete.SquashMergeDetection, error) {
	if noDetect {
		return machete.SquashMergeDetectionNone, nil
	}
	if flagValue != "" {
		return machete.ParseSquashMergeDetection(flagValue)
	}
	return state.SquashMergeDetectionFromConfig(ctx)
}

func init() {
	statusCmd.Flags().BoolVarP(&statusListCommits, "list-commits", "l", false,
		"list the commits unique to each branch")
	statusCmd.Flags().BoolVarP(&statusListCommitsWithHashes, "list-commits-with-hashes", "L", false,
		"list the commits (with hashes) unique to each branch")
	statusCmd.Flags().BoolVar(&statusNoDetectSquashMerges, "no-detect-squash-merges", false,
		"only consider explicit merges (deprecated, use --squash-merge-detection=none)")
	statusCmd.Flags().StringVar(&statusSquashMergeDetection, "squash-merge-detection", "",
		"one of: none, simple, exact")
	rootCmd.AddCommand(statusCmd)
}
