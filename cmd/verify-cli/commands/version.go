package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

func init() {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "The version",
		Args:  cobra.NoArgs,
		// Doesn't need the configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", version, runtime.Version())
		},
	}

	rootCmd.AddCommand(versionCmd)
}
