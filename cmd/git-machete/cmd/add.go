package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/machete"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var (
	addOnto         string
	addAsRoot       bool
	addAsFirstChild bool
	addYes          bool
	addNoSwitch     bool
)

var addCmd = &cobra.Command{
	Use:   "add [<branch>]",
	Short: "Add a branch to the tree of branch dependencies",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, addYes, false)
		if err != nil {
			return err
		}
		branch, err := branchArg(ctx, state, args)
		if err != nil {
			return err
		}
		var onto refs.LocalBranch
		if addOnto != "" {
			onto, err = refs.NewLocalBranch(addOnto)
			if err != nil {
				return err
			}
		}
		return state.Add(ctx, branch, machete.AddOptions{
			Onto:         onto,
			AsRoot:       addAsRoot,
			AsFirstChild: addAsFirstChild,
			SwitchHead:   !addNoSwitch,
		})
	},
}

func init() {
	addCmd.Flags().StringVarP(&addOnto, "onto", "o", "", "parent branch to attach under")
	addCmd.Flags().BoolVarP(&addAsRoot, "as-root", "R", false, "attach as a new root")
	addCmd.Flags().BoolVar(&addAsFirstChild, "as-first-child", false,
		"attach as the first (instead of last) child of the parent")
	addCmd.Flags().BoolVarP(&addYes, "yes", "y", false, "answer y to all prompts")
	addCmd.Flags().BoolVar(&addNoSwitch, "no-switch", false,
		"do not switch to the newly created branch")
	rootCmd.AddCommand(addCmd)
}
