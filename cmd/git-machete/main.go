// Package main is the entry point for the git-machete CLI application.
// git-machete maintains a layout of dependent feature branches and
// keeps it in sync with the repository and its code hosting service.
package main

import (
	"github.com/gizzahub/gzh-cli-machete/cmd/git-machete/cmd"
)

// version is set during build time via ldflags
var version = "dev"

func main() {
	cmd.Execute(version)
}
