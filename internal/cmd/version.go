package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

var versionJSON bool

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print as JSON")
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if versionJSON {
		return json.NewEncoder(out).Encode(versionInfo)
	}
	_, err := fmt.Fprintf(out, "bucketfs %s (commit %s, built %s)\n", versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
	return err
}
