package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"novelbit/api"
	"novelbit/api/handler"
)

type ServeCommand struct {
	host string
	port int
}

func NewServeCmd() *cobra.Command {
	s := &ServeCommand{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

Examples:
  novelbit serve
  novelbit serve --port 8080 --dialect postgres --dsn postgres://localhost/novelbit`,
		Args: cobra.NoArgs,
		RunE: s.run,
	}
	cmd.Flags().StringVar(&s.host, "host", "", "Listen host (overrides server.host)")
	cmd.Flags().IntVarP(&s.port, "port", "p", 0, "Listen port (overrides server.port)")
	return cmd
}

func (s *ServeCommand) run(cmd *cobra.Command, _ []string) error {
	a, cfg, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if s.host != "" {
		cfg.Server.Host = s.host
	}
	if s.port != 0 {
		cfg.Server.Port = s.port
	}
	handler.Version = version

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := api.NewRouter(ctx, a.Novelbit, cfg, time.Now())
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutdown signal received")

	// Give in-flight requests 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	return nil
}
