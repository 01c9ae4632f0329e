package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/bucketfs/internal/observability"
	"github.com/3leaps/bucketfs/internal/server"
	"github.com/3leaps/bucketfs/internal/server/handlers"
	"github.com/3leaps/bucketfs/pkg/provider"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bucket over a read-only HTTP gateway",
	Long: `Serve the configured bucket over HTTP.

Routes:
  GET  /files/<path>   stream a file
  HEAD /files/<path>   file metadata as headers
  GET  /list?dir=&recursive=
  GET  /url/<path>     public URL
  GET  /health, /health/live, /health/ready, /version`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	sc := appConfig.Server
	host, port := sc.Host, sc.Port
	if cmd.Flags().Changed("host") {
		host = serveHost
	}
	if cmd.Flags().Changed("port") {
		port = servePort
	}

	srv := server.New(host, port,
		server.WithStore(sess.store),
		server.WithVersion(server.VersionInfo(versionInfo)),
		server.WithLogger(observability.CLILogger),
		server.WithTimeouts(server.Timeouts{
			Read:     sc.ReadTimeout,
			Write:    sc.WriteTimeout,
			Idle:     sc.IdleTimeout,
			Shutdown: sc.ShutdownTimeout,
		}),
		server.WithHealthChecker("storage", storageChecker(sess.backend)),
	)

	observability.CLILogger.Info("Starting gateway",
		zap.String("host", host),
		zap.Int("port", port),
		zap.String("bucket", sess.store.Config().Bucket))
	if err := srv.Start(ctx); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Gateway failed", err)
	}
	if ctx.Err() != nil && cmd.Context().Err() == nil {
		observability.CLILogger.Info("Gateway stopped by signal")
	}
	return nil
}

// storageChecker reports the bucket unhealthy when a one-key listing fails.
func storageChecker(be provider.Provider) handlers.HealthChecker {
	return handlers.HealthCheckerFunc(func(ctx context.Context) error {
		if _, err := be.ListObjects(ctx, provider.ListOptions{MaxKeys: 1}); err != nil {
			return fmt.Errorf("list bucket: %w", err)
		}
		return nil
	})
}
