package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var diffStat bool

var diffCmd = &cobra.Command{
	Use:     "diff [<branch>]",
	Aliases: []string{"d"},
	Short:   "Diff a branch against its fork point",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}
		var branch refs.LocalBranch
		if len(args) > 0 {
			branch, err = refs.NewLocalBranch(args[0])
			if err != nil {
				return err
			}
		}
		var extraArgs []string
		if diffStat {
			extraArgs = append(extraArgs, "--stat")
		}
		return state.DisplayDiff(ctx, branch, extraArgs...)
	},
}

func init() {
	diffCmd.Flags().BoolVarP(&diffStat, "stat", "s", false, "pass --stat to git diff")
	rootCmd.AddCommand(diffCmd)
}
