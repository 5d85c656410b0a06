package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gizzahub/gzh-cli-machete/pkg/hosting"
	"github.com/gizzahub/gzh-cli-machete/pkg/machete"
)

var (
	traverseFetch               bool
	traverseListCommits         bool
	traverseMerge               bool
	traverseNoEditMerge         bool
	traverseNoInteractiveRebase bool
	traverseNoPush              bool
	traverseNoPushUntracked     bool
	traversePush                bool
	traversePushUntracked       bool
	traverseReturnTo            string
	traverseStartFrom           string
	traverseSquashMergeDetect   string
	traverseNoDetectSquash      bool
	traverseWhole               bool
	traverseWholeWithFetch      bool
	traverseSyncGitHubPRs       bool
	traverseSyncGitLabMRs       bool
	traverseYes                 bool
)

var traverseCmd = &cobra.Command{
	Use:     "traverse",
	Aliases: []string{"t"},
	Short:   "Walk through the tree of branch dependencies, syncing each branch",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		state, err := loadedEngine(ctx, traverseYes, true)
		if err != nil {
			return err
		}

		startFrom := machete.StartFromHere
		switch traverseStartFrom {
		case "", "here":
		case "root":
			startFrom = machete.StartFromRoot
		case "first-root":
			startFrom = machete.StartFromFirstRoot
		default:
			return fmt.Errorf("invalid value of --start-from: %s; valid values are here, root, first-root", traverseStartFrom)
		}
		returnTo := machete.ReturnToStay
		switch traverseReturnTo {
		case "", "stay":
		case "here":
			returnTo = machete.ReturnToHere
		case "nearest-remaining":
			returnTo = machete.ReturnToNearestRemaining
		default:
			return fmt.Errorf("invalid value of --return-to: %s; valid values are stay, here, nearest-remaining", traverseReturnTo)
		}
		if traverseWhole || traverseWholeWithFetch {
			// -w/-W are shorthands for a whole-tree traversal.
			startFrom = machete.StartFromFirstRoot
			returnTo = machete.ReturnToNearestRemaining
		}
		if traverseWholeWithFetch {
			traverseFetch = true
		}

		pushConfig, err := state.Git.BoolConfig(ctx, machete.ConfigKeyTraversePush, true)
		if err != nil {
			return err
		}
		pushTracked := pushConfig && !traverseNoPush
		pushUntracked := pushConfig && !traverseNoPush && !traverseNoPushUntracked
		if traversePush {
			pushTracked, pushUntracked = true, true
		}
		if traversePushUntracked {
			pushUntracked = true
		}

		mode, err := squashMergeDetectionMode(ctx, state, traverseSquashMergeDetect, traverseNoDetectSquash)
		if err != nil {
			return err
		}

		if traverseSyncGitHubPRs && traverseSyncGitLabMRs {
			return fmt.Errorf("options --sync-github-prs and --sync-gitlab-mrs cannot be combined")
		}
		syncPRs := traverseSyncGitHubPRs || traverseSyncGitLabMRs
		if traverseSyncGitHubPRs {
			if _, err := state.InitHosting(ctx, hosting.GitHubSpec, newGitHubClient, ""); err != nil {
				return err
			}
		}
		if traverseSyncGitLabMRs {
			if _, err := state.InitHosting(ctx, hosting.GitLabSpec, newGitLabClient, ""); err != nil {
				return err
			}
		}

		return state.Traverse(ctx, machete.TraverseOptions{
			Fetch:                traverseFetch,
			ListCommits:          traverseListCommits,
			Merge:                traverseMerge,
			NoEditMerge:          traverseNoEditMerge,
			NoInteractiveRebase:  traverseNoInteractiveRebase,
			PushTracked:          pushTracked,
			PushUntracked:        pushUntracked,
			ReturnTo:             returnTo,
			StartFrom:            startFrom,
			SquashMergeDetection: mode,
			SyncPRs:              syncPRs,
			PickRemote:           pickRemote("Select the remote to push to"),
		})
	},
}

func init() {
	traverseCmd.Flags().BoolVarP(&traverseFetch, "fetch", "F", false, "fetch the remotes first")
	traverseCmd.Flags().BoolVarP(&traverseListCommits, "list-commits", "l", false,
		"list the commits unique to each branch")
	traverseCmd.Flags().BoolVarP(&traverseMerge, "merge", "M", false,
		"update by merge rather than rebase")
	traverseCmd.Flags().BoolVar(&traverseNoEditMerge, "no-edit-merge", false,
		"skip opening the editor for merge commit messages")
	traverseCmd.Flags().BoolVar(&traverseNoInteractiveRebase, "no-interactive-rebase", false,
		"run git rebase without --interactive")
	traverseCmd.Flags().BoolVar(&traverseNoPush, "no-push", false, "do not push any branches")
	traverseCmd.Flags().BoolVar(&traverseNoPushUntracked, "no-push-untracked", false,
		"do not push untracked branches")
	traverseCmd.Flags().BoolVar(&traversePush, "push", false, "push all (even tracked) branches")
	traverseCmd.Flags().BoolVar(&traversePushUntracked, "push-untracked", false, "push untracked branches")
	traverseCmd.Flags().StringVar(&traverseReturnTo, "return-to", "stay",
		"branch to return to after the traversal: stay, here, nearest-remaining")
	traverseCmd.Flags().StringVar(&traverseStartFrom, "start-from", "here",
		"branch to start the traversal from: here, root, first-root")
	traverseCmd.Flags().StringVar(&traverseSquashMergeDetect, "squash-merge-detection", "",
		"one of: none, simple, exact")
	traverseCmd.Flags().BoolVar(&traverseNoDetectSquash, "no-detect-squash-merges", false,
		"only consider explicit merges (deprecated)")
	traverseCmd.Flags().BoolVarP(&traverseWhole, "whole", "w", false,
		"traverse the whole tree (start from first root, return to nearest remaining)")
	traverseCmd.Flags().BoolVarP(&traverseWholeWithFetch, "W", "W", false, "same as --fetch --whole")
	traverseCmd.Flags().BoolVarP(&traverseSyncGitHubPRs, "sync-github-prs", "H", false,
		"retarget and create GitHub PRs along the way")
	traverseCmd.Flags().BoolVarP(&traverseSyncGitLabMRs, "sync-gitlab-mrs", "L", false,
		"retarget and create GitLab MRs along the way")
	traverseCmd.Flags().BoolVarP(&traverseYes, "yes", "y", false, "answer y to all prompts")
	rootCmd.AddCommand(traverseCmd)
}
