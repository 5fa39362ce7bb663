package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
	"github.com/seaport-labs/lexrag/internal/domain/ports"
)

// ErrNoDocuments means no law source could be loaded at all.
var ErrNoDocuments = errors.New("no documents loaded")

// IngestConfig holds the ingestion pipeline parameters.
type IngestConfig struct {
	IndexName string
	Dimension int
	Metric    string
	Namespace string
	BatchSize int
}

// IngestUseCase runs the offline pipeline: load sources, chunk, embed in
// batches, and upsert into the vector store namespace.
type IngestUseCase struct {
	loader   ports.DocumentLoader
	embedder ports.EmbeddingService
	store    ports.VectorStore
	admin    ports.IndexAdmin
	chunker  *Chunker
	cfg      IngestConfig
	log      *zap.Logger
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(
	loader ports.DocumentLoader,
	embedder ports.EmbeddingService,
	store ports.VectorStore,
	admin ports.IndexAdmin,
	chunker *Chunker,
	cfg IngestConfig,
	log *zap.Logger,
) *IngestUseCase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Metric == "" {
		cfg.Metric = "cosine"
	}
	return &IngestUseCase{
		loader:   loader,
		embedder: embedder,
		store:    store,
		admin:    admin,
		chunker:  chunker,
		cfg:      cfg,
		log:      log,
	}
}

// Run executes one ingestion over the configured law sources.
// A source that fails to load is warned and skipped; zero loaded documents
// aborts the run. Batches are processed sequentially - a batch failure
// aborts the remaining batches.
func (uc *IngestUseCase) Run(ctx context.Context, sources []entities.LawSource) error {
	docs := uc.loadSources(ctx, sources)
	if len(docs) == 0 {
		return ErrNoDocuments
	}

	if err := uc.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensuring index: %w", err)
	}

	var chunks []entities.Chunk
	for _, doc := range docs {
		chunks = append(chunks, uc.chunker.Split(doc)...)
	}
	uc.log.Info("splitting complete",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)))

	return uc.Upsert(ctx, chunks)
}

// loadSources loads each manifest entry and tags the document with the
// source's jurisdiction.
func (uc *IngestUseCase) loadSources(ctx context.Context, sources []entities.LawSource) []*entities.Document {
	var docs []*entities.Document
	for _, src := range sources {
		doc, err := uc.loader.Load(ctx, src.Path)
		if err != nil {
			uc.log.Warn("skipping source",
				zap.String("path", src.Path),
				zap.Error(err))
			continue
		}
		doc.Name = src.Name
		doc.Jurisdiction = src.Jurisdiction
		docs = append(docs, doc)
		uc.log.Info("loaded source",
			zap.String("name", src.Name),
			zap.String("jurisdiction", src.Jurisdiction))
	}
	return docs
}

// EnsureIndex creates the target index if it is absent. A duplicate-create
// race is treated as success. After creating, it polls until the index is
// queryable rather than sleeping a fixed interval.
func (uc *IngestUseCase) EnsureIndex(ctx context.Context) error {
	names, err := uc.admin.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("listing indexes: %w", err)
	}
	for _, n := range names {
		if n == uc.cfg.IndexName {
			return nil
		}
	}

	uc.log.Info("creating index",
		zap.String("name", uc.cfg.IndexName),
		zap.Int("dimension", uc.cfg.Dimension),
		zap.String("metric", uc.cfg.Metric))
	err = uc.admin.CreateIndex(ctx, uc.cfg.IndexName, uc.cfg.Dimension, uc.cfg.Metric)
	if errors.Is(err, ports.ErrIndexExists) {
		uc.log.Info("index already exists, skipping creation", zap.String("name", uc.cfg.IndexName))
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}

	return uc.waitReady(ctx)
}

// waitReady polls the readiness check with capped exponential backoff.
func (uc *IngestUseCase) waitReady(ctx context.Context) error {
	const (
		maxAttempts = 20
		maxDelay    = 30 * time.Second
	)
	delay := time.Second
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ready, err := uc.admin.IndexReady(ctx, uc.cfg.IndexName)
		if err != nil {
			return fmt.Errorf("checking index readiness: %w", err)
		}
		if ready {
			return nil
		}
		uc.log.Debug("index not ready yet",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return fmt.Errorf("index %s not ready after %d attempts", uc.cfg.IndexName, maxAttempts)
}

// Upsert embeds and writes chunks in fixed-size sequential batches, bounding
// memory and respecting embedding-service rate limits.
func (uc *IngestUseCase) Upsert(ctx context.Context, chunks []entities.Chunk) error {
	total := (len(chunks) + uc.cfg.BatchSize - 1) / uc.cfg.BatchSize
	for i := 0; i < len(chunks); i += uc.cfg.BatchSize {
		end := i + uc.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]
		uc.log.Info("indexing batch",
			zap.Int("batch", i/uc.cfg.BatchSize+1),
			zap.Int("total", total))

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Content
		}
		embeddings, err := uc.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch %d: %w", i/uc.cfg.BatchSize+1, err)
		}
		for j := range batch {
			batch[j].Embedding = embeddings[j]
		}

		if err := uc.store.Upsert(ctx, uc.cfg.Namespace, batch); err != nil {
			return fmt.Errorf("upserting batch %d: %w", i/uc.cfg.BatchSize+1, err)
		}
	}
	uc.log.Info("indexing complete", zap.Int("chunks", len(chunks)))
	return nil
}
