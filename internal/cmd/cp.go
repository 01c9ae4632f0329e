package cmd

import (
	"errors"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/3leaps/bucketfs/pkg/output"
)

var cpCmd = &cobra.Command{
	Use:   "cp <src> <dst>",
	Short: "Copy a file within a bucket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCopy(cmd, args, "cp")
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <src> <dst>",
	Short: "Rename a file within a bucket",
	Long: `Rename a file by copying it and deleting the source.

The source is only deleted after the copy succeeded. If the delete fails
the copy is left in place.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCopy(cmd, args, "mv")
	},
}

func init() {
	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(mvCmd)
}

func runCopy(cmd *cobra.Command, args []string, op string) error {
	ctx := cmd.Context()

	src, err := parsePath(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid source path", err)
	}
	dst, err := parsePath(args[1])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid destination path", err)
	}
	if src.Path == "" || dst.Path == "" {
		return exitError(foundry.ExitInvalidArgument, "Invalid arguments", errors.New("source and destination must be file paths"))
	}
	bucket, err := sameBucket(src, dst, appConfig.Storage.Bucket)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid arguments", err)
	}

	sess, err := openSession(ctx, bucket)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	transfer := sess.store.Copy
	if op == "mv" {
		transfer = sess.store.Rename
	}
	ok, err := transfer(ctx, src.Path, dst.Path)
	if err := sess.check("Failed to "+op, ok, err); err != nil {
		return err
	}
	return writeResult(ctx, cmd.OutOrStdout(), sess, &output.ResultRecord{Op: op, Path: src.Path, Target: dst.Path, OK: true})
}
