// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cliutil

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ANSI escape sequences used across the CLI output.
const (
	ColorEnd       = "\033[0m"
	ColorBold      = "\033[1m"
	ColorDim       = "\033[2m"
	ColorUnderline = "\033[4m"
	ColorGreen     = "\033[32m"
	ColorYellow    = "\033[33m"
	ColorOrange    = "\033[00;38;5;208m"
	ColorRed       = "\033[91m"

	ColorCyanBold  = "\033[1;36m"
	ColorGreenBold = "\033[1;32m"
)

// colorEnabled controls whether the styling helpers emit escape codes.
// Defaults to whether stdout is a terminal; the --no-color flag turns
// it off.
var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

// SetColorEnabled overrides color auto-detection.
func SetColorEnabled(enabled bool) { colorEnabled = enabled }

// ColorEnabled reports whether styling is in effect.
func ColorEnabled() bool { return colorEnabled }

func style(code, s string) string {
	if !colorEnabled || s == "" {
		return s
	}
	return code + s + ColorEnd
}

// Bold styles s bold.
func Bold(s string) string { return style(ColorBold, s) }

// Dim styles s dim.
func Dim(s string) string { return style(ColorDim, s) }

// Underline styles s underlined.
func Underline(s string) string { return style(ColorUnderline, s) }

// Colored wraps s in the given color code.
func Colored(s, code string) string { return style(code, s) }

// AsciiOnly reports whether output should avoid non-ASCII glyphs,
// controlled by the ASCII_ONLY environment variable.
func AsciiOnly() bool {
	return os.Getenv("ASCII_ONLY") == "true"
}

// PrettyChoices renders an answer hint like " (y, e[dit], N) " with the
// default answer capitalized by the caller.
func PrettyChoices(choices ...string) string {
	return " (" + strings.Join(choices, ", ") + ") "
}

// QuickStartHelp returns a standardized "Quick Start" help string with
// colors, wrapping the example content with the styled header.
func QuickStartHelp(content string) string {
	return " " + ColorCyanBold + "Quick Start:" + ColorEnd + "\n" + content
}
