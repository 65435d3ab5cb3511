package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags "-X ...commands.version=v1.2.3".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vaultbox version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("vaultbox", version)
	},
}
