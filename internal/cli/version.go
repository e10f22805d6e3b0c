package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set through ldflags at release time.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// SetVersion overrides the build metadata; main wires it from ldflags.
func SetVersion(v, c, d string) {
	version, commit, buildDate = v, c, d
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the zapctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "zapctl %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}
