package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/3leaps/bucketfs/pkg/adapter"
	"github.com/3leaps/bucketfs/pkg/output"
)

var putCmd = &cobra.Command{
	Use:   "put <path> [local-file]",
	Short: "Write a file from disk or stdin",
	Long: `Write an object at a logical path.

The body comes from local-file, or from stdin with --stdin. The content type
is taken from --content-type, else guessed from the path and the body.
With --update an existing object keeps its visibility unless --visibility
is given.

Examples:
  bucketfs put docs/readme.md ./README.md
  echo hello | bucketfs put --stdin notes/hello.txt --visibility public
  bucketfs put --update docs/readme.md ./README.md`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

var (
	putStdin        bool
	putUpdate       bool
	putVisibility   string
	putContentType  string
	putCacheControl string
)

func init() {
	rootCmd.AddCommand(putCmd)

	putCmd.Flags().BoolVar(&putStdin, "stdin", false, "Read the body from stdin")
	putCmd.Flags().BoolVar(&putUpdate, "update", false, "Preserve the visibility of an existing object")
	putCmd.Flags().StringVar(&putVisibility, "visibility", "", "Visibility (public|private)")
	putCmd.Flags().StringVar(&putContentType, "content-type", "", "Content type")
	putCmd.Flags().StringVar(&putCacheControl, "cache-control", "", "Cache-Control header")
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	target, err := parsePath(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid path", err)
	}
	if target.Path == "" {
		return exitError(foundry.ExitInvalidArgument, "Invalid path", errors.New("a file path is required"))
	}
	if putStdin == (len(args) == 2) {
		return exitError(foundry.ExitInvalidArgument, "Invalid arguments", errors.New("give either a local file or --stdin"))
	}
	cfg, err := putConfig()
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, target.Bucket)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	var md *adapter.Metadata
	switch {
	case putStdin && putUpdate:
		md, err = sess.store.UpdateStream(ctx, target.Path, cmd.InOrStdin(), cfg)
	case putStdin:
		md, err = sess.store.WriteStream(ctx, target.Path, cmd.InOrStdin(), cfg)
	case putUpdate:
		var data []byte
		data, err = os.ReadFile(args[1])
		if err != nil {
			return localFileError(err)
		}
		md, err = sess.store.Update(ctx, target.Path, data, cfg)
	default:
		if _, statErr := os.Stat(args[1]); statErr != nil {
			return localFileError(statErr)
		}
		md, err = sess.store.WriteFile(ctx, target.Path, args[1], cfg)
	}
	if err := sess.checkMetadata("Failed to write file", md, err); err != nil {
		return err
	}

	return writeResult(ctx, cmd.OutOrStdout(), sess, &output.ResultRecord{Op: "put", Path: md.Path, OK: true})
}

func putConfig() (adapter.Config, error) {
	cfg := adapter.Config{}
	if putVisibility != "" {
		v, ok := adapter.ParseVisibility(putVisibility)
		if !ok {
			return nil, exitError(foundry.ExitInvalidArgument, "Invalid --visibility value", fmt.Errorf("expected public or private, got %q", putVisibility))
		}
		cfg[adapter.ConfigVisibility] = string(v)
	}
	if putContentType != "" {
		cfg[adapter.ConfigMimetype] = putContentType
	}
	if putCacheControl != "" {
		cfg[adapter.ConfigCacheControl] = putCacheControl
	}
	return cfg, nil
}

func localFileError(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return exitError(foundry.ExitFileNotFound, "Local file not found", err)
	}
	return exitError(foundry.ExitFileReadError, "Failed to read local file", err)
}
