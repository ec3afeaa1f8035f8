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

	"github.com/DeafMist/amendment-radar/internal/config"
	"github.com/DeafMist/amendment-radar/internal/congress"
	"github.com/DeafMist/amendment-radar/internal/digest"
	"github.com/DeafMist/amendment-radar/internal/logger"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	client, err := congress.New(cfg.CongressAPIBaseURL, cfg.CongressAPIKey, cfg.Congress, cfg.UpstreamTimeout, log)
	if err != nil {
		log.Error("init congress client", slog.Any("err", err))
		os.Exit(1)
	}

	if err := cfg.RequireAPIKey(); err != nil {
		log.Warn("CONGRESS_API_KEY is not set, digest requests will fail", slog.Any("err", err))
	}

	builder := digest.New(client, log, digest.WithConcurrency(cfg.EnrichConcurrency))
	srv := newServer(log, cfg, builder)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting",
			slog.String("addr", cfg.BindAddr),
			slog.Int("congress", cfg.Congress),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
