package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
)

var urlCmd = &cobra.Command{
	Use:   "url <path>",
	Short: "Print the public URL of a path",
	Long: `Print the public URL of a path.

The URL uses the custom domain when one is configured, otherwise the
bucket's virtual-hosted endpoint. No request is made and the object does
not need to exist.`,
	Args: cobra.ExactArgs(1),
	RunE: runURL,
}

func init() {
	rootCmd.AddCommand(urlCmd)
}

func runURL(cmd *cobra.Command, args []string) error {
	target, err := parsePath(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid path", err)
	}
	sess, err := openSession(cmd.Context(), target.Bucket)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	_, err = fmt.Fprintln(cmd.OutOrStdout(), sess.store.GetURL(target.Path))
	return err
}
