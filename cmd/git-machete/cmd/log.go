package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var logCmd = &cobra.Command{
	Use:     "log [<branch>] [-- <git log args>...]",
	Aliases: []string{"l"},
	Short:   "Log the unique history of a branch, down to its fork point",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}
		var branch refs.LocalBranch
		var extraArgs []string
		if dash := cmd.ArgsLenAtDash(); dash >= 0 {
			if dash > 0 {
				branch, err = refs.NewLocalBranch(args[0])
				if err != nil {
					return err
				}
			}
			extraArgs = args[dash:]
		} else if len(args) > 0 {
			branch, err = refs.NewLocalBranch(args[0])
			if err != nil {
				return err
			}
		}
		return state.DisplayLog(ctx, branch, extraArgs...)
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
}
