package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"cartshare/internal/realtime"
	"cartshare/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	srv, httpServer := server.NewServer()

	// Migrations are best-effort on boot. A deployment whose workspace
	// migrations have not run yet still serves lists; workspace
	// operations fall back to device-local storage until the schema
	// catches up.
	if err := srv.GetDB().RunMigrations(); err != nil {
		logger.Warn("migrations did not complete, continuing", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres LISTEN/NOTIFY feeds the SSE hub.
	if dsn := os.Getenv("DB_STRING"); dsn != "" {
		listener := realtime.NewListener(dsn, srv.GetHub(), logger)
		go func() {
			if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("realtime listener stopped", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("starting server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	if err := srv.CloseLocal(); err != nil {
		logger.Error("local store close error", "error", err)
	}
	if err := srv.GetDB().Close(); err != nil {
		logger.Error("database close error", "error", err)
	}
}
