package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	gzhclimachete "github.com/gizzahub/gzh-cli-machete"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of git-machete",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(gzhclimachete.VersionString())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
