package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "codequiz", describeVersion(version))
	},
}

// describeVersion annotates v with its release channel.
func describeVersion(v string) string {
	if !semver.IsValid(v) {
		return v + " (development build)"
	}
	if pre := semver.Prerelease(v); pre != "" {
		return semver.Canonical(v) + " (pre-release)"
	}
	return semver.Canonical(v)
}
