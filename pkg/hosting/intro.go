// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package hosting

import (
	"fmt"
	"sort"
	"strings"
)

// The machete-managed block of a PR description lives between these two
// markers; everything outside is the user's own text and is preserved.
const (
	StartGeneratedComment = "<!-- start git-machete generated -->"
	EndGeneratedComment   = "<!-- end git-machete generated -->"
)

// IntroStyle selects what the generated description block contains.
type IntroStyle string

const (
	IntroStyleUpOnly           IntroStyle = "up-only"
	IntroStyleUpOnlyNoBranches IntroStyle = "up-only-no-branches"
	IntroStyleFull             IntroStyle = "full"
	IntroStyleFullNoBranches   IntroStyle = "full-no-branches"
	IntroStyleNone             IntroStyle = "none"
)

// ParseIntroStyle validates an intro style string.
func ParseIntroStyle(value string) (IntroStyle, error) {
	switch IntroStyle(value) {
	case IntroStyleUpOnly, IntroStyleUpOnlyNoBranches, IntroStyleFull, IntroStyleFullNoBranches, IntroStyleNone:
		return IntroStyle(value), nil
	}
	return "", fmt.Errorf("invalid PR description intro style: %s "+
		"(valid values: up-only, up-only-no-branches, full, full-no-branches, none)", value)
}

func prsWithHead(prs []*PullRequest, head string) []*PullRequest {
	var result []*PullRequest
	for _, pr := range prs {
		if pr.Head == head {
			result = append(result, pr)
		}
	}
	return result
}

// upwardsPath returns pr and its chain of base PRs, innermost first
// (i.e. pr itself is the first element).
func upwardsPath(pr *PullRequest, allPRs []*PullRequest) []*PullRequest {
	path := []*PullRequest{pr}
	visited := map[int]bool{pr.Number: true}
	current := pr
	for {
		basePRs := prsWithHead(allPRs, current.Base)
		if len(basePRs) == 0 {
			return path
		}
		next := basePRs[0]
		if visited[next.Number] {
			return path
		}
		visited[next.Number] = true
		path = append(path, next)
		current = next
	}
}

type prAtDepth struct {
	pr    *PullRequest
	depth int
}

// downwardsTree returns the PRs stacked on top of pr, pre-order with
// depths, excluding pr itself.
func downwardsTree(pr *PullRequest, allPRs []*PullRequest) []prAtDepth {
	var result []prAtDepth
	visited := map[int]bool{pr.Number: true}
	var walk func(head string, depth int)
	walk = func(head string, depth int) {
		for _, child := range prsOnBase(allPRs, head) {
			if visited[child.Number] {
				continue
			}
			visited[child.Number] = true
			result = append(result, prAtDepth{child, depth})
			walk(child.Head, depth+1)
		}
	}
	walk(pr.Head, 0)
	return result
}

func prsOnBase(prs []*PullRequest, base string) []*PullRequest {
	var result []*PullRequest
	for _, pr := range prs {
		if pr.Base == base {
			result = append(result, pr)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result
}

// GenerateIntro produces the content of the machete-managed block for
// pr: the chain of upstream PRs (and, in the full styles, the tree of
// downstream ones), with pr itself marked as (THIS ONE). Returns ""
// when there is nothing worth saying.
func GenerateIntro(spec Spec, style IntroStyle, pr *PullRequest, allPRs []*PullRequest, asOfDate string) string {
	if style == IntroStyleNone {
		return ""
	}

	basePRs := prsWithHead(allPRs, pr.Base)
	if (style == IntroStyleUpOnly || style == IntroStyleUpOnlyNoBranches) && len(basePRs) == 0 {
		return ""
	}

	upPath := upwardsPath(pr, allPRs)
	// The path was collected innermost first; render trunk-side first.
	for i, j := 0, len(upPath)-1; i < j; i, j = i+1, j-1 {
		upPath[i], upPath[j] = upPath[j], upPath[i]
	}
	var downTree []prAtDepth
	if style == IntroStyleFull || style == IntroStyleFullNoBranches {
		downTree = downwardsTree(pr, allPRs)
	}
	if len(upPath) == 1 && len(downTree) == 0 {
		return ""
	}

	brBeforeBranches := ""
	if spec.IntroBrBeforeBranches {
		brBeforeBranches = " <br>"
	}

	var b strings.Builder
	b.WriteString(StartGeneratedComment + "\n\n")
	if len(basePRs) >= 1 {
		fmt.Fprintf(&b, "# Based on %s\n\n", basePRs[0].DisplayText())
	}

	switch {
	case len(downTree) > 0 && len(upPath) > 1:
		fmt.Fprintf(&b, "## Chain of upstream %ss & tree of downstream %ss", spec.PRShortName, spec.PRShortName)
	case len(downTree) > 0:
		fmt.Fprintf(&b, "## Tree of downstream %ss", spec.PRShortName)
	default:
		fmt.Fprintf(&b, "## Chain of upstream %ss", spec.PRShortName)
	}
	fmt.Fprintf(&b, " as of %s\n\n", asOfDate)

	entry := func(p *PullRequest, depth int) {
		indent := strings.Repeat("  ", depth)
		displayText := p.DisplayText()
		explicitTitle := ""
		if spec.IntroExplicitTitle {
			explicitTitle = " _" + p.Title + "_"
		}
		withBranches := style == IntroStyleUpOnly || style == IntroStyleFull
		if withBranches {
			if p.Number == pr.Number {
				fmt.Fprintf(&b, "%s* **%s%s (THIS ONE)**:%s\n", indent, displayText, explicitTitle, brBeforeBranches)
			} else {
				fmt.Fprintf(&b, "%s* %s%s:%s\n", indent, displayText, explicitTitle, brBeforeBranches)
			}
			fmt.Fprintf(&b, "%s  `%s` ← `%s`\n\n", indent, p.Base, p.Head)
		} else {
			if p.Number == pr.Number {
				fmt.Fprintf(&b, "%s* **%s%s (THIS ONE)**\n\n", indent, displayText, explicitTitle)
			} else {
				fmt.Fprintf(&b, "%s* %s%s\n\n", indent, displayText, explicitTitle)
			}
		}
	}

	baseDepth := 0
	for _, upPR := range upPath {
		entry(upPR, baseDepth)
		baseDepth++
	}
	for _, down := range downTree {
		entry(down.pr, baseDepth+down.depth)
	}
	b.WriteString(EndGeneratedComment + "\n")
	return b.String()
}

// UpdatedDescription splices the freshly generated intro into an
// existing description. The block between the delimiter comments is
// replaced in place; when the delimiters are absent, the block is
// prepended (after stripping the single pre-v3.23 legacy "# Based on
// PR #" line). Text outside the block is preserved byte-for-byte,
// including trailing newlines.
func UpdatedDescription(description, intro string) string {
	trailingNewlines := ""
	for i := len(description) - 1; i >= 0 && description[i] == '\n'; i-- {
		trailingNewlines += "\n"
	}
	var lines []string
	if trimmed := strings.TrimSpace(description); trimmed != "" {
		lines = strings.Split(trimmed, "\n")
	}
	var introLines []string
	if intro != "" {
		introLines = strings.Split(strings.TrimRight(intro, "\n"), "\n")
	}

	skipLeadingEmpty := func(input []string) []string {
		for i, line := range input {
			if strings.TrimSpace(line) != "" {
				return input[i:]
			}
		}
		return nil
	}

	startIdx, endIdx := -1, -1
	for i, line := range lines {
		if line == StartGeneratedComment && startIdx < 0 {
			startIdx = i
		}
		if line == EndGeneratedComment {
			endIdx = i
		}
	}

	var result []string
	if startIdx >= 0 && endIdx >= 0 {
		result = append(result, lines[:startIdx]...)
		result = append(result, introLines...)
		result = append(result, lines[endIdx+1:]...)
		result = skipLeadingEmpty(result)
	} else {
		// Compatibility with the pre-v3.23.0 format (GitHub only).
		if len(lines) > 0 && strings.Contains(lines[0], "# Based on PR #") {
			lines = lines[1:]
		}
		result = append(result, introLines...)
		if len(introLines) > 0 {
			result = append(result, "")
		}
		result = append(result, skipLeadingEmpty(lines)...)
	}
	return strings.Join(result, "\n") + trailingNewlines
}
