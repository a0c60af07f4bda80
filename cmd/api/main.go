package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/hectorluisalamo/bilingual-rag/internal/adapters/http"
	"github.com/hectorluisalamo/bilingual-rag/internal/bootstrap"
	"github.com/hectorluisalamo/bilingual-rag/internal/config"
	"github.com/hectorluisalamo/bilingual-rag/internal/observability/logging"
	"github.com/hectorluisalamo/bilingual-rag/internal/observability/metrics"
)

const serviceName = "rag-api"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	m := metrics.NewHTTPServerMetrics(serviceName)
	router := httpadapter.NewRouter(serviceName, app.AskUC, app.IngestUC, app.AdminUC, app.Storage, m)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
