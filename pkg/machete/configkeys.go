// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package machete

import "github.com/gizzahub/gzh-cli-machete/pkg/refs"

// Git config keys consumed and produced by the engine.
const (
	ConfigKeySquashMergeDetection      = "machete.squashMergeDetection"
	ConfigKeyStatusExtraSpace          = "machete.status.extraSpaceBeforeBranchName"
	ConfigKeyTraversePush              = "machete.traverse.push"
	ConfigKeyWorktreeUseTopLevelLayout = "machete.worktree.useTopLevelMacheteFile"
)

func overrideForkPointToKey(branch refs.LocalBranch) string {
	return "machete.overrideForkPoint." + branch.String() + ".to"
}

// The whileDescendantOf key is deprecated but still written, so that
// older git-machete clients keep recognizing the override.
func overrideForkPointWhileDescendantOfKey(branch refs.LocalBranch) string {
	return "machete.overrideForkPoint." + branch.String() + ".whileDescendantOf"
}
