package cmd

import (
	"io"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/bucketfs/internal/observability"
)

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Write a file's contents to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runCat,
}

func init() {
	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	target, err := parsePath(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid path", err)
	}
	sess, err := openSession(ctx, target.Bucket)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	md, err := sess.store.ReadStream(ctx, target.Path)
	if err := sess.checkMetadata("Failed to read file", md, err); err != nil {
		return err
	}
	defer func() { _ = md.Stream.Close() }()

	n, err := io.Copy(cmd.OutOrStdout(), md.Stream)
	if err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write file contents", err)
	}
	observability.CLILogger.Debug("Read complete", zap.String("path", target.Path), zap.Int64("bytes", n))
	return nil
}
