package cmd

import (
	"errors"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/3leaps/bucketfs/pkg/adapter"
	"github.com/3leaps/bucketfs/pkg/output"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a directory marker",
	Args:  cobra.ExactArgs(1),
	RunE:  runMkdir,
}

var mkdirVisibility string

func init() {
	rootCmd.AddCommand(mkdirCmd)

	mkdirCmd.Flags().StringVar(&mkdirVisibility, "visibility", "", "Visibility of the marker (public|private)")
}

func runMkdir(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	target, err := parsePath(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid path", err)
	}
	if target.Path == "" {
		return exitError(foundry.ExitInvalidArgument, "Invalid path", errors.New("a directory path is required"))
	}
	cfg := adapter.Config{}
	if mkdirVisibility != "" {
		v, ok := adapter.ParseVisibility(mkdirVisibility)
		if !ok {
			return exitError(foundry.ExitInvalidArgument, "Invalid --visibility value", errors.New("expected public or private"))
		}
		cfg[adapter.ConfigVisibility] = string(v)
	}

	sess, err := openSession(ctx, target.Bucket)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	md, err := sess.store.CreateDir(ctx, target.Path, cfg)
	if err := sess.checkMetadata("Failed to create directory", md, err); err != nil {
		return err
	}
	return writeResult(ctx, cmd.OutOrStdout(), sess, &output.ResultRecord{Op: "mkdir", Path: md.Path, OK: true})
}
