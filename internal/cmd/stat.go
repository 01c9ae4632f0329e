package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/3leaps/bucketfs/pkg/adapter"
)

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show the metadata of a file",
	Long: `Show the metadata of a file: size, content type, modification time,
storage class and the raw backend headers.

--field limits the lookup to one attribute (size|mimetype|timestamp), and
--visibility adds an ACL lookup.`,
	Args: cobra.ExactArgs(1),
	RunE: runStat,
}

var (
	statOutput     string
	statField      string
	statVisibility bool
)

func init() {
	rootCmd.AddCommand(statCmd)

	statCmd.Flags().StringVarP(&statOutput, "output", "o", formatJSONL, "Output format (jsonl|table|yaml)")
	statCmd.Flags().StringVar(&statField, "field", "", "Only look up one attribute (size|mimetype|timestamp)")
	statCmd.Flags().BoolVar(&statVisibility, "visibility", false, "Also look up the visibility")
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	if err := validateFormat(statOutput); err != nil {
		return err
	}
	target, err := parsePath(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid path", err)
	}
	if target.Path == "" {
		return exitError(foundry.ExitInvalidArgument, "Invalid path", errors.New("a file path is required"))
	}

	sess, err := openSession(ctx, target.Bucket)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	var lookup func(ctx context.Context, path string) (*adapter.Metadata, error)
	switch statField {
	case "":
		lookup = sess.store.GetMetadata
	case "size":
		lookup = sess.store.GetSize
	case "mimetype":
		lookup = sess.store.GetMimetype
	case "timestamp":
		lookup = sess.store.GetTimestamp
	default:
		return exitError(foundry.ExitInvalidArgument, "Invalid --field value", fmt.Errorf("expected size, mimetype or timestamp, got %q", statField))
	}

	md, err := lookup(ctx, target.Path)
	if err := sess.checkMetadata("Failed to stat file", md, err); err != nil {
		return err
	}
	if md.Type == "" {
		md.Type = adapter.TypeFile
	}

	if statVisibility {
		vis, err := sess.store.GetVisibility(ctx, target.Path)
		if err := sess.checkMetadata("Failed to get visibility", vis, err); err != nil {
			return err
		}
		md.Visibility = vis.Visibility
	}

	return writeFiles(ctx, cmd.OutOrStdout(), sess, statOutput, []*adapter.Metadata{md}, false, start)
}
