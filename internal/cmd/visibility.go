package cmd

import (
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/3leaps/bucketfs/pkg/adapter"
)

var visibilityCmd = &cobra.Command{
	Use:   "visibility",
	Short: "Get or set the visibility of a file",
	Long: `Get or set the visibility of a file.

Visibility collapses the object ACL to two values: public (public-read)
and private (everything else).`,
}

var visibilityGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Show the visibility of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runVisibilityGet,
}

var visibilitySetCmd = &cobra.Command{
	Use:   "set <path> <public|private>",
	Short: "Change the visibility of a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runVisibilitySet,
}

var visibilityOutput string

func init() {
	rootCmd.AddCommand(visibilityCmd)
	visibilityCmd.AddCommand(visibilityGetCmd)
	visibilityCmd.AddCommand(visibilitySetCmd)

	visibilityCmd.PersistentFlags().StringVarP(&visibilityOutput, "output", "o", formatJSONL, "Output format (jsonl|table|yaml)")
}

func runVisibilityGet(cmd *cobra.Command, args []string) error {
	return runVisibility(cmd, args[0], func(s *session, path string) (*adapter.Metadata, error) {
		return s.store.GetVisibility(cmd.Context(), path)
	})
}

func runVisibilitySet(cmd *cobra.Command, args []string) error {
	v, ok := adapter.ParseVisibility(args[1])
	if !ok {
		return exitError(foundry.ExitInvalidArgument, "Invalid visibility", fmt.Errorf("expected public or private, got %q", args[1]))
	}
	return runVisibility(cmd, args[0], func(s *session, path string) (*adapter.Metadata, error) {
		return s.store.SetVisibility(cmd.Context(), path, v)
	})
}

func runVisibility(cmd *cobra.Command, arg string, op func(*session, string) (*adapter.Metadata, error)) error {
	ctx := cmd.Context()
	start := time.Now()

	if err := validateFormat(visibilityOutput); err != nil {
		return err
	}
	target, err := parsePath(arg)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid path", err)
	}
	sess, err := openSession(ctx, target.Bucket)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	md, err := op(sess, target.Path)
	if err := sess.checkMetadata("Failed to access visibility", md, err); err != nil {
		return err
	}
	md.Type = adapter.TypeFile
	return writeFiles(ctx, cmd.OutOrStdout(), sess, visibilityOutput, []*adapter.Metadata{md}, false, start)
}
