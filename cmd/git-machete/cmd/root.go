// Package cmd implements the CLI commands for git-machete.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/git"
	"github.com/gizzahub/gzh-cli-machete/pkg/machete"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

var (
	// appVersion is set by main.go
	appVersion string

	// Global flags
	noColor bool
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "git-machete",
	Short: "git machete: organize your repo, instantly rebase/merge/push/pull",
	Long: `git machete maintains a small, user-editable file with the layout of your
branches (a forest of feature branches over long-lived trunks) and keeps
the repository in sync with it: rebasing chains of dependent branches,
sliding merged branches out, pushing and pulling with the right force
semantics, and creating or retargeting pull requests to match the layout.
` + cliutil.QuickStartHelp(`  # Discover the branch layout and show the status
  git machete discover
  git machete status

  # Walk the branches, syncing each with its parent and remote
  git machete traverse --fetch`),
	Version: appVersion,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute(version string) {
	appVersion = version
	rootCmd.Version = version

	applySilenceRecursive(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, machete.ErrInteractionStopped) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func applySilenceRecursive(cmd *cobra.Command) {
	// Cobra does not propagate SilenceUsage/SilenceErrors to child
	// commands. Set on every command so runtime errors never print
	// usage text.
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	for _, c := range cmd.Commands() {
		applySilenceRecursive(c)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
	// --no-color is a plain boolean; NoOptDefVal keeps `--no-color`
	// usable without an explicit value.
	var noColorFlag *pflag.Flag = rootCmd.PersistentFlags().Lookup("no-color")
	if noColorFlag != nil {
		noColorFlag.NoOptDefVal = "true"
	}

	cobra.OnInitialize(func() {
		if noColor {
			cliutil.SetColorEnabled(false)
		}
	})
}

// newEngine wires up the gateway and engine state for a command run in
// the current directory.
func newEngine(ctx context.Context, yes bool) (*machete.State, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	repo := git.NewRepo(wd)
	state := machete.NewState(repo)
	state.Yes = yes
	if err := state.ResolveLayoutPath(ctx); err != nil {
		return nil, err
	}
	return state, nil
}

// loadedEngine additionally reads the layout file, sliding out branches
// that no longer exist (asking the user first when interactive is set).
func loadedEngine(ctx context.Context, yes, interactive bool) (*machete.State, error) {
	state, err := newEngine(ctx, yes)
	if err != nil {
		return nil, err
	}
	if err := state.LoadLayout(ctx, true, interactive); err != nil {
		return nil, err
	}
	return state, nil
}

// pickBranch lets the user choose among branches with an interactive
// select form.
func pickBranch(prompt string) func(candidates []refs.LocalBranch) (refs.LocalBranch, error) {
	return func(candidates []refs.LocalBranch) (refs.LocalBranch, error) {
		options := make([]huh.Option[string], len(candidates))
		for i, candidate := range candidates {
			options[i] = huh.NewOption(candidate.String(), candidate.String())
		}
		var selected string
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().Title(prompt).Options(options...).Value(&selected),
		))
		if err := form.Run(); err != nil {
			return "", machete.ErrInteractionStopped
		}
		return refs.LocalBranch(selected), nil
	}
}

// pickRemote is the remote-flavored variant of pickBranch.
func pickRemote(prompt string) func(candidates []string) (string, error) {
	return func(candidates []string) (string, error) {
		options := make([]huh.Option[string], len(candidates))
		for i, candidate := range candidates {
			options[i] = huh.NewOption(candidate, candidate)
		}
		var selected string
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().Title(prompt).Options(options...).Value(&selected),
		))
		if err := form.Run(); err != nil {
			return "", machete.ErrInteractionStopped
		}
		return selected, nil
	}
}

// branchArg parses an optional branch positional, defaulting to the
// current branch.
func branchArg(ctx context.Context, state *machete.State, args []string) (refs.LocalBranch, error) {
	if len(args) > 0 {
		return refs.NewLocalBranch(args[0])
	}
	return state.Git.CurrentBranch(ctx)
}
