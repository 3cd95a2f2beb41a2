package cli

import (
	"github.com/spf13/cobra"
)

// version is set by main at startup.
var version = "dev"

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the codeqa version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("codeqa version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
