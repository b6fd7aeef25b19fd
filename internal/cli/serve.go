package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/shoplist/internal/logging"
	"github.com/dukerupert/shoplist/internal/server"
	"github.com/dukerupert/shoplist/internal/shoplist"
	"github.com/dukerupert/shoplist/internal/store"
)

func (a *app) serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the shoplist HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default from config)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	logger, closeLog := logging.Setup(logging.Options{Level: a.cfg.LogLevel, File: a.cfg.LogFile})
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := store.Open(ctx, a.cfg.Store)
	if err != nil {
		logger.Error("failed to open store", "backend", a.cfg.Store.Backend, "error", err)
		return err
	}
	defer closeStore()

	renderer, err := a.cfg.Renderer()
	if err != nil {
		return err
	}
	svc := shoplist.NewService(repo, nil)
	svc.SetRenderer(renderer)

	srv := server.New(svc, server.Config{
		CORSOrigin:   a.cfg.CORSOrigin,
		CreateLimit:  a.cfg.CreateRateLimit,
		CreateWindow: time.Minute,
	}, logger)

	httpServer := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go srv.RateLimiter().RunCleanup(ctx, 10*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("shoplist server starting", "addr", httpServer.Addr, "store", a.cfg.Store.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	return nil
}
