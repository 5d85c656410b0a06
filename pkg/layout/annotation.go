// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package layout

import (
	"regexp"
	"strings"
)

// Qualifiers are the per-branch flags that gate automatic actions.
// The zero value is NOT the default; use DefaultQualifiers.
type Qualifiers struct {
	// Rebase permits the branch to be rebased during traversal.
	Rebase bool

	// Push permits the branch to be pushed during traversal.
	Push bool

	// SlideOut permits the branch to be slid out once merged.
	SlideOut bool

	// UpdateWithMerge makes update/traverse merge the parent in
	// instead of rebasing onto it.
	UpdateWithMerge bool
}

// DefaultQualifiers returns the qualifier set with all gates open.
func DefaultQualifiers() Qualifiers {
	return Qualifiers{Rebase: true, Push: true, SlideOut: true}
}

// IsDefault reports whether no qualifier deviates from its default.
func (q Qualifiers) IsDefault() bool {
	return q.Rebase && q.Push && q.SlideOut && !q.UpdateWithMerge
}

// String serializes the non-default qualifiers, space-separated,
// in the fixed order rebase=no push=no slide-out=no update=merge.
func (q Qualifiers) String() string {
	var segments []string
	if !q.Rebase {
		segments = append(segments, "rebase=no")
	}
	if !q.Push {
		segments = append(segments, "push=no")
	}
	if !q.SlideOut {
		segments = append(segments, "slide-out=no")
	}
	if q.UpdateWithMerge {
		segments = append(segments, "update=merge")
	}
	return strings.Join(segments, " ")
}

// Annotation is the free-form text attached to a branch in the layout
// file, with the qualifier tokens stripped out into Qualifiers.
type Annotation struct {
	// Text is the annotation text without qualifier tokens.
	Text string

	// Qualifiers holds the parsed qualifier flags.
	Qualifiers Qualifiers
}

var qualifierTokens = []struct {
	token string
	apply func(*Qualifiers)
}{
	{"rebase=no", func(q *Qualifiers) { q.Rebase = false }},
	{"push=no", func(q *Qualifiers) { q.Push = false }},
	{"slide-out=no", func(q *Qualifiers) { q.SlideOut = false }},
	{"update=merge", func(q *Qualifiers) { q.UpdateWithMerge = true }},
}

var (
	wholeWordRes = make(map[string]*regexp.Regexp, len(qualifierTokens))
	stripRes     = make(map[string]*regexp.Regexp, len(qualifierTokens))
)

func init() {
	for _, qt := range qualifierTokens {
		quoted := regexp.QuoteMeta(qt.token)
		wholeWordRes[qt.token] = regexp.MustCompile(`\b` + quoted + `\b`)
		stripRes[qt.token] = regexp.MustCompile(`[ ]?` + quoted + `[ ]?`)
	}
}

// ParseAnnotation extracts qualifier tokens from text.
// Tokens are recognized only as whole words; substrings glued into
// larger tokens are left in the text and do not affect the qualifiers.
func ParseAnnotation(text string) Annotation {
	qualifiers := DefaultQualifiers()
	rest := text
	for _, qt := range qualifierTokens {
		if wholeWordRes[qt.token].MatchString(rest) {
			qt.apply(&qualifiers)
			rest = stripRes[qt.token].ReplaceAllString(rest, " ")
		}
	}
	return Annotation{Text: strings.TrimSpace(rest), Qualifiers: qualifiers}
}

// IsEmpty reports whether the annotation carries neither text nor
// non-default qualifiers.
func (a Annotation) IsEmpty() bool {
	return a.Text == "" && a.Qualifiers.IsDefault()
}

// Unformatted reconstructs the full annotation text: the free text and
// the qualifier segment joined with a single space, either half omitted
// when empty.
func (a Annotation) Unformatted() string {
	if a.IsEmpty() {
		return ""
	}
	var result string
	if a.Text != "" {
		result += a.Text
	}
	if a.Text != "" && !a.Qualifiers.IsDefault() {
		result += " "
	}
	if !a.Qualifiers.IsDefault() {
		result += a.Qualifiers.String()
	}
	return result
}
