package cmd

import (
	"errors"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/3leaps/bucketfs/pkg/output"
)

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete a file, or a directory with --dir",
	Long: `Delete a file.

With --dir the path is treated as a directory: every object below it is
deleted in batches, followed by the directory marker.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

var rmDir bool

func init() {
	rootCmd.AddCommand(rmCmd)

	rmCmd.Flags().BoolVar(&rmDir, "dir", false, "Delete a directory and everything below it")
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	target, err := parsePath(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid path", err)
	}
	if target.Path == "" && !rmDir {
		return exitError(foundry.ExitInvalidArgument, "Invalid path", errors.New("a file path is required"))
	}

	sess, err := openSession(ctx, target.Bucket)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	op := "rm"
	var ok bool
	if rmDir {
		op = "rmdir"
		ok, err = sess.store.DeleteDir(ctx, target.Path)
	} else {
		ok, err = sess.store.Delete(ctx, target.Path)
	}
	if err := sess.check("Failed to delete", ok, err); err != nil {
		return err
	}
	return writeResult(ctx, cmd.OutOrStdout(), sess, &output.ResultRecord{Op: op, Path: target.Path, OK: true})
}
