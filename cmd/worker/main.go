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

	"github.com/hectorluisalamo/bilingual-rag/internal/bootstrap"
	"github.com/hectorluisalamo/bilingual-rag/internal/config"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/observability/logging"
	"github.com/hectorluisalamo/bilingual-rag/internal/observability/metrics"
)

const serviceName = "rag-worker"

const processTimeout = 5 * time.Minute

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

	m := metrics.NewWorkerMetrics(serviceName)
	app.ProcessUC.WithChunkObserver(func(n int) {
		m.AddChunksInserted(serviceName, n)
	})
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(m),
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeIngestJobs(ctx, func(handlerCtx context.Context, job domain.IngestJob) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()

		m.StartDocument()
		start := time.Now()
		if doc, lookupErr := app.Repo.GetByID(processCtx, job.DocumentID); lookupErr == nil {
			m.ObserveQueueLag(serviceName, start.Sub(doc.CreatedAt))
		}

		processErr := app.ProcessUC.Process(processCtx, job)
		m.FinishDocument(serviceName, time.Since(start), processErr)
		return processErr
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}

func metricsHandler(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}
