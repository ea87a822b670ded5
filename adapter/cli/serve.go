package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	shutdownPeriod time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API together with the outbox processor until interrupted.

Examples:
  flowboard serve
  flowboard serve --addr 0.0.0.0:9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Server == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		if serveAddr != "" {
			app.Server.SetAddr(serveAddr)
		}

		ctx := cmd.Context()
		if app.OutboxProcessor != nil {
			app.OutboxProcessor.Start(ctx)
		}

		build := CurrentBuild()
		serveLogger := logger
		if serveLogger == nil {
			serveLogger = slog.Default()
		}
		serveLogger.InfoContext(ctx, "serving api",
			"addr", app.Server.Addr(),
			"version", build.Version,
			"commit", build.Commit,
		)

		errCh := make(chan error, 1)
		go func() {
			errCh <- app.Server.Start()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
		defer cancel()
		if app.OutboxProcessor != nil {
			app.OutboxProcessor.Stop()
		}
		return app.Server.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to FLOWBOARD_HTTP_ADDR)")
	serveCmd.Flags().DurationVar(&shutdownPeriod, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	rootCmd.AddCommand(serveCmd)
}
