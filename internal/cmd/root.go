// Package cmd implements the bucketfs command line.
package cmd

import (
	"errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/bucketfs/internal/config"
	"github.com/3leaps/bucketfs/internal/observability"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
}

var versionInfo = VersionInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}

// SetVersionInfo records build metadata injected through ldflags.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// Global flags.
var (
	cfgFile    string
	backend    string
	debugMode  bool
	logLevel   string
	prefixFlag string
	bucketFlag string
)

// configSearchPaths overrides the config file search path (tests).
var configSearchPaths []string

// appConfig is the configuration loaded for the running command.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "bucketfs",
	Short: "Filesystem-style access to object storage buckets",
	Long: `bucketfs exposes an object storage bucket as a hierarchical filesystem.

Paths are logical: the configured storage prefix is applied on the way in
and stripped on the way out. Arguments accept a bare path or an
s3://bucket/path URI, in which case the URI bucket overrides configuration.

Configuration is read from bucketfs.yaml (working directory or user config
dir), BUCKETFS_* environment variables and the global flags below.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initRuntime,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ./bucketfs.yaml)")
	pf.StringVar(&backend, "backend", "", "Storage backend (s3|memory)")
	pf.BoolVar(&debugMode, "debug", false, "Surface backend errors and enable debug logging")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.StringVar(&prefixFlag, "prefix", "", "Storage prefix prepended to every path")
	pf.StringVar(&bucketFlag, "bucket", "", "Bucket name")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initRuntime(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithOptions(cmd.Context(), config.LoadOptions{
		File:        cfgFile,
		SearchPaths: configSearchPaths,
	}, flagOverrides(cmd))
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}
	appConfig = cfg

	level := cfg.Logging.Level
	if debugMode {
		level = "debug"
	}
	logger, err := observability.NewLogger(level, cfg.Logging.Profile)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid logging configuration", err)
	}
	observability.SetCLILogger(logger.Named("bucketfs"))
	observability.CLILogger.Debug("Configuration loaded",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("prefix", cfg.Storage.Prefix))
	return nil
}

// flagOverrides returns the explicitly set global flags as config overrides.
func flagOverrides(cmd *cobra.Command) map[string]any {
	storage := map[string]any{}
	logging := map[string]any{}
	flags := cmd.Flags()

	if flags.Changed("backend") {
		storage["backend"] = backend
	}
	if flags.Changed("debug") {
		storage["debug"] = debugMode
	}
	if flags.Changed("prefix") {
		storage["prefix"] = prefixFlag
	}
	if flags.Changed("bucket") {
		storage["bucket"] = bucketFlag
	}
	if flags.Changed("log-level") {
		logging["level"] = logLevel
	}
	return map[string]any{"storage": storage, "logging": logging}
}

// cliError carries a process exit code alongside the failure.
type cliError struct {
	code    int
	message string
	err     error
}

func (e *cliError) Error() string {
	return fmt.Sprintf("%s: %v (exit code %d)", e.message, e.err, e.code)
}

func (e *cliError) Unwrap() error {
	return e.err
}

func exitError(code int, message string, err error) error {
	return &cliError{code: code, message: message, err: err}
}

// ExitCode returns the process exit code for err: 0 for nil, the code
// attached by the failing command, or 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}
