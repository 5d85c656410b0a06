// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gizzahub/gzh-cli-machete/pkg/cliutil"
	"github.com/gizzahub/gzh-cli-machete/pkg/git"
	"github.com/gizzahub/gzh-cli-machete/pkg/layout"
	"github.com/gizzahub/gzh-cli-machete/pkg/refs"
)

// StatusOptions control the status display.
type StatusOptions struct {
	ListCommits           bool
	ListCommitsWithHashes bool
	SquashMergeDetection  SquashMergeDetection
	WarnWhenForkPointOff  bool
}

func verticalBar() string {
	if cliutil.AsciiOnly() {
		return "|"
	}
	return "│"
}

func rightArrow() string {
	if cliutil.AsciiOnly() {
		return "->"
	}
	return "➔"
}

func edgeColor(status EdgeStatus) string {
	switch status {
	case EdgeMergedToParent:
		return cliutil.ColorDim
	case EdgeOutOfSync:
		return cliutil.ColorRed
	case EdgeInSyncButForkPointOff:
		return cliutil.ColorYellow
	default:
		return cliutil.ColorGreen
	}
}

func asciiJunction(status EdgeStatus) string {
	switch status {
	case EdgeMergedToParent:
		return "m-"
	case EdgeOutOfSync:
		return "x-"
	case EdgeInSyncButForkPointOff:
		return "?-"
	default:
		return "o-"
	}
}

func formatAnnotation(a layout.Annotation) string {
	if a.IsEmpty() {
		return ""
	}
	var result string
	if a.Text != "" {
		result += cliutil.Dim(a.Text)
	}
	if a.Text != "" && !a.Qualifiers.IsDefault() {
		result += " "
	}
	if !a.Qualifiers.IsDefault() {
		result += cliutil.Dim(cliutil.Underline(a.Qualifiers.String()))
	}
	return result
}

// Status renders the tree of branch dependencies with edge colors,
// remote-sync suffixes and (optionally) the commit listing per branch.
func (s *State) Status(ctx context.Context, opts StatusOptions) error {
	// The path of "next siblings of each ancestor" per branch; needed
	// to color the leading vertical bars properly.
	type pathEntry struct {
		branch refs.LocalBranch
		// path[i] is the next sibling of the branch's ancestor at
		// depth i+1, valid only where hasNext[i] holds.
		path    []refs.LocalBranch
		hasNext []bool
	}
	var order []pathEntry
	var prefixDFS func(parent refs.LocalBranch, path []refs.LocalBranch, hasNext []bool)
	prefixDFS = func(parent refs.LocalBranch, path []refs.LocalBranch, hasNext []bool) {
		order = append(order, pathEntry{parent, path, hasNext})
		children := s.Layout.Children(parent)
		for i, child := range children {
			var nextSibling refs.LocalBranch
			has := i+1 < len(children)
			if has {
				nextSibling = children[i+1]
			}
			prefixDFS(child, append(append([]refs.LocalBranch{}, path...), nextSibling),
				append(append([]bool{}, hasNext...), has))
		}
	}
	for _, root := range s.Layout.Roots() {
		prefixDFS(root, nil, nil)
	}

	// Edge colors are precomputed so that the leading parts of the
	// lines can be rendered before their branches are reached.
	edgeStatus := map[refs.LocalBranch]EdgeStatus{}
	forkPoints := map[refs.LocalBranch]refs.CommitHash{}
	forkPointBranches := map[refs.LocalBranch][]BranchPair{}
	for _, branch := range s.Layout.Managed() {
		if _, hasParent := s.Layout.Parent(branch); !hasParent {
			continue
		}
		status, err := s.EdgeStatusFor(ctx, branch, opts.SquashMergeDetection)
		if err != nil {
			return err
		}
		edgeStatus[branch] = status
		if hash, pairs, err := s.ForkPoint(ctx, branch, true); err == nil {
			forkPoints[branch] = hash
			forkPointBranches[branch] = pairs
		}
	}

	currentBranch, _ := s.Git.CurrentBranchOrNone(ctx)
	rebasedBranch, _ := s.Git.CurrentlyRebasedBranch(ctx)
	bisectedBranch, _ := s.Git.CurrentlyBisectedBranch(ctx)

	hookPath, err := s.Git.HookPath(ctx, "machete-status-branch")
	if err != nil {
		return err
	}
	rootDir, err := s.Git.RootDir(ctx)
	if err != nil {
		return err
	}

	extraSpace, err := s.Git.BoolConfig(ctx, ConfigKeyStatusExtraSpace, false)
	if err != nil {
		return err
	}
	maybeSpace := ""
	if extraSpace {
		maybeSpace = " "
	}

	var out strings.Builder
	printLinePrefix := func(entry pathEntry, suffix string) {
		out.WriteString("  " + maybeSpace)
		for i := 0; i < len(entry.path)-1; i++ {
			if !entry.hasNext[i] {
				out.WriteString("  " + maybeSpace)
			} else {
				out.WriteString(cliutil.Colored(verticalBar()+" "+maybeSpace, edgeColor(edgeStatus[entry.path[i]])))
			}
		}
		out.WriteString(cliutil.Colored(suffix, edgeColor(edgeStatus[entry.branch])))
	}

	for index, entry := range order {
		branch := entry.branch
		if _, hasParent := s.Layout.Parent(branch); hasParent {
			printLinePrefix(entry, verticalBar()+"\n")
			if opts.ListCommits {
				commits, err := s.commitsToList(ctx, branch, edgeStatus[branch], forkPoints[branch])
				if err != nil {
					return err
				}
				for _, commit := range commits {
					suffix := ""
					if commit.Hash == forkPoints[branch] {
						names := make([]string, 0, len(forkPointBranches[branch]))
						for _, pair := range forkPointBranches[branch] {
							names = append(names, cliutil.Underline(pair.LocalOrRemote))
						}
						sort.Strings(names)
						what := "commit " + commit.ShortHash.String()
						if opts.ListCommitsWithHashes {
							what = "this commit"
						}
						suffix = fmt.Sprintf(" %s %s %s seems to be a part of the unique history of %s",
							cliutil.Colored(rightArrow(), cliutil.ColorRed),
							cliutil.Colored("fork point ???", cliutil.ColorRed),
							what, strings.Join(names, " and "))
					}
					printLinePrefix(entry, verticalBar())
					hashPart := ""
					if opts.ListCommitsWithHashes {
						hashPart = cliutil.Dim(commit.ShortHash.String()) + "  "
					}
					out.WriteString(" " + hashPart + cliutil.Dim(commit.Subject) + suffix + "\n")
				}
			}

			var junction string
			if cliutil.AsciiOnly() {
				junction = asciiJunction(edgeStatus[branch])
			} else if len(entry.hasNext) > 0 && entry.hasNext[len(entry.hasNext)-1] &&
				edgeStatus[entry.path[len(entry.path)-1]] == edgeStatus[branch] {
				junction = "├─"
			} else {
				// A three-legged turnstile looks bad when the upward
				// and rightward legs have a different color than the
				// downward leg; use the two-legged elbow then.
				junction = "└─"
			}
			printLinePrefix(entry, junction+maybeSpace)
		} else {
			if index > 0 {
				out.WriteString("\n")
			}
			out.WriteString("  " + maybeSpace)
		}

		var rendered string
		if branch == currentBranch || branch == rebasedBranch || branch == bisectedBranch {
			prefix := ""
			switch {
			case branch == rebasedBranch:
				prefix = "REBASING "
			case branch == bisectedBranch:
				prefix = "BISECTING "
			default:
				switch op, _ := s.Git.InProgressOperationOrNone(ctx); op {
				case git.OpAM:
					prefix = "GIT AM IN PROGRESS "
				case git.OpCherryPick:
					prefix = "CHERRY-PICKING "
				case git.OpMerge:
					prefix = "MERGING "
				case git.OpRevert:
					prefix = "REVERTING "
				}
			}
			name := branch.String()
			if cliutil.AsciiOnly() {
				name = "* " + name
			}
			rendered = cliutil.Bold(cliutil.Colored(prefix, cliutil.ColorRed)) + cliutil.Bold(cliutil.Underline(name))
		} else {
			rendered = cliutil.Bold(branch.String())
		}

		anno := ""
		if a, ok := s.Layout.Annotation(branch); ok {
			if formatted := formatAnnotation(a); formatted != "" {
				anno = "  " + formatted
			}
		}

		remoteStatus, remote, err := s.CombinedRemoteSyncStatus(ctx, branch)
		if err != nil {
			return err
		}
		syncSuffix := ""
		switch remoteStatus {
		case RemoteUntracked:
			syncSuffix = cliutil.Colored(" (untracked)", cliutil.ColorOrange)
		case RemoteBehind:
			syncSuffix = cliutil.Colored(fmt.Sprintf(" (behind %s)", cliutil.Bold(remote)), cliutil.ColorRed)
		case RemoteAhead:
			syncSuffix = cliutil.Colored(fmt.Sprintf(" (ahead of %s)", cliutil.Bold(remote)), cliutil.ColorRed)
		case RemoteDivergedAndOlder:
			syncSuffix = cliutil.Colored(fmt.Sprintf(" (diverged from & older than %s)", cliutil.Bold(remote)), cliutil.ColorRed)
		case RemoteDivergedAndNewer:
			syncSuffix = cliutil.Colored(fmt.Sprintf(" (diverged from %s)", cliutil.Bold(remote)), cliutil.ColorRed)
		}

		hookOutput := ""
		hookEnv := []string{fmt.Sprintf("ASCII_ONLY=%t", cliutil.AsciiOnly())}
		if code, stdout, err := s.Git.RunHookCaptured(ctx, hookPath, rootDir, hookEnv, branch.String()); err == nil &&
			code == 0 && strings.TrimSpace(stdout) != "" {
			// Newlines are replaced with spaces in case the hook
			// prints more than one line.
			hookOutput = "  " + strings.TrimRight(strings.ReplaceAll(stdout, "\n", " "), " ")
		}

		out.WriteString(rendered + anno + syncSuffix + hookOutput + "\n")
	}

	fmt.Fprint(s.Out, out.String())

	if opts.WarnWhenForkPointOff {
		var offBranches []refs.LocalBranch
		for _, branch := range s.Layout.Managed() {
			if edgeStatus[branch] == EdgeInSyncButForkPointOff {
				offBranches = append(offBranches, branch)
			}
		}
		if len(offBranches) > 0 {
			first := offBranches[0]
			parent, _ := s.Layout.Parent(first)
			firstPart := fmt.Sprintf("yellow edge indicates that fork point for %s is probably incorrectly inferred,\n"+
				"or that some extra branch should be between %s and %s",
				cliutil.Bold(first.String()), cliutil.Bold(parent.String()), cliutil.Bold(first.String()))
			if len(offBranches) > 1 {
				firstPart = "yellow edges indicate that fork points for the above branches are probably incorrectly inferred,\n" +
					"or that some extra branches should be added between them and their parents"
			}
			s.Warn(firstPart + ".\nConsider using `git machete fork-point --override-to=<revision>|--inferred <branch>`,\n" +
				"or reattaching the affected branches under different parent branches")
		}
	}
	return nil
}

// commitsToList picks the commit range shown under a branch in status
// --list-commits: fork point to tip normally, parent tip to tip for a
// yellow edge, nothing for a merged branch.
func (s *State) commitsToList(ctx context.Context, branch refs.LocalBranch,
	status EdgeStatus, forkPoint refs.CommitHash) ([]git.Commit, error) {
	switch {
	case forkPoint == "":
		// Rare, but possible e.g. due to reflog expiry.
		return nil, nil
	case status == EdgeMergedToParent:
		return nil, nil
	case status == EdgeInSyncButForkPointOff:
		parent, _ := s.Layout.Parent(branch)
		return s.Git.CommitsBetween(ctx, parent.Revision(), branch.Revision())
	default:
		return s.Git.CommitsBetween(ctx, forkPoint.Revision(), branch.Revision())
	}
}
