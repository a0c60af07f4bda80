package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/hectorluisalamo/bilingual-rag/internal/config"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/ports"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/usecase"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/embedding/offline"
	openaiembed "github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/embedding/openai"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/extractor/pdf"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/extractor/raw"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/extractor/web"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/faq"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/fetch"
	openaichat "github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/llm/openai"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/queue/nats"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/repository/postgres"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/rerank"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/resilience"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/segmenter"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	DB      *sql.DB
	Queue   ports.MessageQueue
	Repo    ports.DocumentRepository
	Storage ports.ObjectStorage

	AskUC     *usecase.AskUseCase
	IngestUC  ports.DocumentIngestor
	ProcessUC *usecase.ProcessUseCase
	AdminUC   ports.DocumentAdmin

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db, cfg.EmbedDim); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	chunkStore := postgres.NewChunkStore(db, cfg.InlineVectors, executor)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	offlineProvider := offline.New(cfg.OpenAIEmbedModel, cfg.EmbedDim)
	embedder := openaiembed.New(
		cfg.OpenAIAPIKey,
		cfg.OpenAIBaseURL,
		cfg.OpenAIEmbedModel,
		cfg.EmbedBatchSize,
		offlineProvider,
		executor,
	)
	synthClient := openaichat.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIChatModel, executor)

	var reranker ports.Reranker
	if cfg.RerankEnabled {
		reranker = rerank.New(cfg.RerankURL)
	}

	faqIndex, err := faq.Load(cfg.FAQPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			queue.Close()
			_ = db.Close()
			return nil, fmt.Errorf("load faq index: %w", err)
		}
		slog.Warn("faq_index_missing", "path", cfg.FAQPath)
		faqIndex = faq.Empty()
	}

	fetcher := fetch.New(cfg.UserAgent, cfg.FetchRPS, 30*time.Second)
	extractors := map[domain.SourceType]ports.TextExtractor{
		domain.SourceURL: web.NewExtractor(fetcher),
		domain.SourcePDF: pdf.NewExtractor(storage),
		domain.SourceRaw: raw.NewExtractor(storage),
	}

	retriever := usecase.NewRetriever(embedder, chunkStore, reranker).
		WithThresholds(cfg.ScoreFloor, cfg.EntityBoost)
	synth := usecase.NewSynthesizer(synthClient)
	askUC := usecase.NewAskUseCase(faqIndex, retriever, synth, usecase.AskConfig{
		Timeout:          cfg.QueryTimeout,
		DefaultLangs:     cfg.DefaultLangs,
		DefaultIndexName: cfg.DefaultIndexName,
		DebugErrors:      cfg.DebugErrors,
	})

	ingestUC := usecase.NewIngestUseCase(repo, storage, queue, cfg.DefaultIndexName)
	processUC := usecase.NewProcessUseCase(
		repo,
		extractors,
		func(maxTokens, overlap int) ports.Segmenter {
			return segmenter.New(maxTokens, overlap)
		},
		embedder,
		chunkStore,
		cfg.ChunkMaxTokens,
		cfg.ChunkOverlap,
		cfg.AutoApprove,
	)
	adminUC := usecase.NewAdminUseCase(repo, cfg.DefaultIndexName)

	return &App{
		Config: cfg,

		DB:      db,
		Queue:   queue,
		Repo:    repo,
		Storage: storage,

		AskUC:     askUC,
		IngestUC:  ingestUC,
		ProcessUC: processUC,
		AdminUC:   adminUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
