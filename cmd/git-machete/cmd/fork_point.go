package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var (
	forkPointOverrideTo    string
	forkPointUnsetOverride bool
	forkPointInferred      bool
)

var forkPointCmd = &cobra.Command{
	Use:   "fork-point [<branch>]",
	Short: "Display or override the fork point of a branch",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, false, false)
		if err != nil {
			return err
		}
		branch, err := branchArg(ctx, state, args)
		if err != nil {
			return err
		}

		flagsSet := 0
		for _, set := range []bool{forkPointOverrideTo != "", forkPointUnsetOverride, forkPointInferred} {
			if set {
				flagsSet++
			}
		}
		if flagsSet > 1 {
			return fmt.Errorf("at most one of --override-to, --unset-override, --inferred can be passed")
		}

		switch {
		case forkPointOverrideTo != "":
			return state.SetForkPointOverride(ctx, branch, refs.Revision(forkPointOverrideTo))
		case forkPointUnsetOverride:
			return state.UnsetForkPointOverride(ctx, branch)
		case forkPointInferred:
			hash, _, err := state.ForkPoint(ctx, branch, false)
			if err != nil {
				return err
			}
			state.Printf("%s\n", hash)
			return nil
		default:
			hash, _, err := state.ForkPoint(ctx, branch, true)
			if err != nil {
				return err
			}
			state.Printf("%s\n", hash)
			return nil
		}
	},
}

func init() {
	forkPointCmd.Flags().StringVar(&forkPointOverrideTo, "override-to", "",
		"override the fork point to the given revision")
	forkPointCmd.Flags().BoolVar(&forkPointUnsetOverride, "unset-override", false,
		"remove the fork point override")
	forkPointCmd.Flags().BoolVar(&forkPointInferred, "inferred", false,
		"display the inferred fork point, ignoring overrides")
	rootCmd.AddCommand(forkPointCmd)
}
