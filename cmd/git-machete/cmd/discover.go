package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/machete"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var (
	discoverRoots           []string
	discoverCheckedOutSince string
	discoverListCommits     bool
	discoverYes             bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover the tree of branch dependencies from reflogs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := newEngine(ctx, discoverYes)
		if err != nil {
			return err
		}
		// The existing layout is read (without branch verification) so
		// that qualifiers survive rediscovery.
		if err := state.LoadLayout(ctx, false, false); err != nil {
			return err
		}
		roots := make([]refs.LocalBranch, 0, len(discoverRoots))
		for _, root := range discoverRoots {
			branch, err := refs.NewLocalBranch(root)
			if err != nil {
				return err
			}
			roots = append(roots, branch)
		}
		return state.Discover(ctx, machete.DiscoverOptions{
			Roots:           roots,
			CheckedOutSince: discoverCheckedOutSince,
			ListCommits:     discoverListCommits,
		})
	},
}

func init() {
	discoverCmd.Flags().StringSliceVarP(&discoverRoots, "roots", "r", nil,
		"comma-separated list of root branches")
	discoverCmd.Flags().StringVarP(&discoverCheckedOutSince, "checked-out-since", "C", "",
		"only include branches checked out since the given date")
	discoverCmd.Flags().BoolVarP(&discoverListCommits, "list-commits", "l", false,
		"list the commits unique to each branch")
	discoverCmd.Flags().BoolVarP(&discoverYes, "yes", "y", false,
		"save the discovered tree without asking")
	rootCmd.AddCommand(discoverCmd)
}
