package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/notify"
	"github.com/dgnsrekt/osm-live-updates/internal/server"
)

const shutdownTimeout = 30 * time.Second

func syncCmd() *cobra.Command {
	var (
		from   int
		notice bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Apply replication diffs up to the upstream head",
		Long: `Apply every diff after the last recorded sequence number, at most
sync.max_diffs per run. The first run needs --from.

Examples:
  # First run, start at a known sequence number
  olu sync --from 6093400

  # Continue from the sync history
  olu sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := newApp()

			hist, err := a.OpenHistory()
			if err != nil {
				return err
			}
			defer func() { _ = hist.Close() }()

			var notifier notify.Notifier = &notify.NoopNotifier{}
			if notice {
				ntfyCfg := notify.LoadConfig()
				if err := ntfyCfg.Validate(); err != nil {
					return err
				}
				notifier = notify.New(ntfyCfg, logger)
			}

			result, err := a.NewRunner(hist, nil).Run(ctx, from)
			if nerr := notify.Report(context.WithoutCancel(ctx), notifier, result, err); nerr != nil {
				logger.Warn("failed to send notification", zap.Error(nerr))
			}
			if err != nil {
				return err
			}

			if result.UpToDate() {
				fmt.Printf("Already at %d (%s)\n", result.Upstream.SequenceNumber, result.Upstream.Timestamp)
				return nil
			}
			fmt.Printf("Applied %d diffs (%d..%d), upstream at %d\n",
				result.Applied, result.From, result.To, result.Upstream.SequenceNumber)
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", -1, "first sequence number to apply (default: after the last recorded one)")
	cmd.Flags().BoolVar(&notice, "notify", false, "send ntfy notifications (NTFY_* environment)")

	return cmd
}

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve replication state, sync history and node locations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := newApp()

			hist, err := a.OpenHistory()
			if err != nil {
				return err
			}
			defer func() { _ = hist.Close() }()

			if port == "" {
				port = cfg.Server.Port
			}

			srv := server.NewServer(a.Fetcher, hist, a.Resolver, logger.Named("server"))
			httpServer := &http.Server{
				Addr:         ":" + port,
				Handler:      server.NewRouter(srv, logger.Named("http")),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting server", zap.String("addr", httpServer.Addr))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}

			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default: server.port)")

	return cmd
}
