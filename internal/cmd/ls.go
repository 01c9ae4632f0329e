package cmd

import (
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/bucketfs/internal/observability"
	"github.com/3leaps/bucketfs/pkg/match"
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List the contents of a directory",
	Long: `List files and directories below a logical path.

Listing is shallow unless --recursive is set. Recursive listings also report
every intermediate directory, whether or not a directory marker exists.
A glob argument lists recursively from its static prefix and keeps the
entries matching the pattern.

Examples:
  bucketfs ls docs/
  bucketfs ls -r docs/ --output table
  bucketfs ls 's3://media/img/**/*.png'
  bucketfs ls -r / --match '**/*.md' --exclude 'drafts/**'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

var (
	lsRecursive     bool
	lsMatch         []string
	lsExclude       []string
	lsIncludeHidden bool
	lsOutput        string
	lsURLs          bool
)

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().BoolVarP(&lsRecursive, "recursive", "r", false, "List all descendants")
	lsCmd.Flags().StringArrayVar(&lsMatch, "match", nil, "Include glob pattern (repeatable)")
	lsCmd.Flags().StringArrayVar(&lsExclude, "exclude", nil, "Exclude glob pattern (repeatable)")
	lsCmd.Flags().BoolVar(&lsIncludeHidden, "include-hidden", false, "Let patterns match paths with a segment starting with '.'")
	lsCmd.Flags().StringVarP(&lsOutput, "output", "o", formatJSONL, "Output format (jsonl|table|yaml)")
	lsCmd.Flags().BoolVar(&lsURLs, "urls", false, "Add the public URL to file records")
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	if err := validateFormat(lsOutput); err != nil {
		return err
	}

	arg := ""
	if len(args) == 1 {
		arg = args[0]
	}
	target, err := ParseTarget(arg)
	if err != nil {
		observability.CLILogger.Error("Invalid path", zap.String("path", arg), zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid path", err)
	}

	includes := lsMatch
	recursive := lsRecursive
	if target.IsPattern() {
		includes = append([]string{target.Pattern}, includes...)
		recursive = true
	}
	matcher, err := match.New(match.Config{
		Includes:      includes,
		Excludes:      lsExclude,
		IncludeHidden: lsIncludeHidden,
	})
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid match patterns", err)
	}

	sess, err := openSession(ctx, target.Bucket)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	items, err := sess.store.ListContents(ctx, target.Path, recursive)
	if err != nil {
		return sess.check("Failed to list contents", false, err)
	}
	if sess.lastErr != nil {
		return sess.check("Failed to list contents", false, nil)
	}

	if !matcher.Empty() {
		kept := items[:0]
		for _, md := range items {
			if matcher.Match(md.Path) {
				kept = append(kept, md)
			}
		}
		items = kept
	}

	observability.CLILogger.Debug("Listing complete",
		zap.String("path", target.Path),
		zap.Bool("recursive", recursive),
		zap.Int("entries", len(items)))
	return writeFiles(ctx, cmd.OutOrStdout(), sess, lsOutput, items, lsURLs, start)
}
