// lexrag answers natural-language questions about import/export regulation
// by retrieving passages from a jurisdiction-tagged legal corpus and
// synthesizing an answer with a language model.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seaport-labs/lexrag/internal/adapters/embedding"
	"github.com/seaport-labs/lexrag/internal/adapters/llm"
	"github.com/seaport-labs/lexrag/internal/adapters/loader"
	"github.com/seaport-labs/lexrag/internal/adapters/vectordb"
	"github.com/seaport-labs/lexrag/internal/adapters/watcher"
	"github.com/seaport-labs/lexrag/internal/config"
	"github.com/seaport-labs/lexrag/internal/domain/ports"
	"github.com/seaport-labs/lexrag/internal/domain/usecases"
	serverhttp "github.com/seaport-labs/lexrag/internal/infrastructure/http"
)

var (
	configPath string
	verbose    bool
	watchFlag  bool
	statsIDs   []string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lexrag",
	Short: "Retrieval-augmented legal assistant for import/export law",
	Long: `lexrag ingests jurisdiction-tagged legal texts into a vector index and
answers questions about import/export regulation through a confidence-gated
retrieval loop.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the query HTTP server",
	RunE:  runServe,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest the configured law sources into the vector index",
	RunE:  runIngest,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Describe the vector index and sample stored vectors",
	RunE:  runStats,
}

func main() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	serveCmd.Flags().BoolVar(&watchFlag, "watch", false, "re-ingest when law sources change on disk")
	statsCmd.Flags().StringSliceVar(&statsIDs, "ids", nil, "vector IDs to fetch and inspect")

	rootCmd.AddCommand(serveCmd, ingestCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// backend bundles the store interfaces a command needs.
type backend struct {
	store ports.VectorStore
	admin ports.IndexAdmin
}

// buildBackend constructs the configured vector store backend.
func buildBackend() (*backend, error) {
	switch cfg.Store.Type {
	case "pinecone":
		apiKey := os.Getenv("PINECONE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("PINECONE_API_KEY is not set")
		}
		pc := vectordb.NewPineconeStore(apiKey, cfg.Index.Name, cfg.Store.Pinecone.Cloud, cfg.Store.Pinecone.Region)
		return &backend{store: pc, admin: pc}, nil
	case "sqlite":
		st, err := vectordb.NewSQLiteStore(cfg.Store.SQLite.DataPath, cfg.Index.Name)
		if err != nil {
			return nil, err
		}
		return &backend{store: st, admin: st}, nil
	case "memory":
		st := vectordb.NewInMemoryStore()
		return &backend{store: st, admin: st}, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

func buildEmbedder() (ports.EmbeddingService, error) {
	apiKey := os.Getenv("MISTRAL_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("MISTRAL_API_KEY is not set")
	}
	return embedding.NewMistralAdapter(cfg.Models.EmbeddingURL, apiKey, cfg.Models.EmbeddingModel), nil
}

func buildIngest(b *backend, embedder ports.EmbeddingService) *usecases.IngestUseCase {
	return usecases.NewIngestUseCase(
		loader.NewMultiLoader(cfg.Ingestion.PDFServiceURL),
		embedder,
		b.store,
		b.admin,
		usecases.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap),
		usecases.IngestConfig{
			IndexName: cfg.Index.Name,
			Dimension: cfg.Index.Dimension,
			Metric:    cfg.Index.Metric,
			Namespace: cfg.Index.Namespace,
			BatchSize: cfg.Ingestion.BatchSize,
		},
		logger,
	)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	b, err := buildBackend()
	if err != nil {
		return err
	}
	embedder, err := buildEmbedder()
	if err != nil {
		return err
	}

	if len(cfg.Ingestion.Sources) == 0 {
		return fmt.Errorf("no law sources configured")
	}
	return buildIngest(b, embedder).Run(ctx, cfg.Ingestion.Sources)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	b, err := buildBackend()
	if err != nil {
		return err
	}
	embedder, err := buildEmbedder()
	if err != nil {
		return err
	}

	chat, err := llm.NewGeminiAdapter(ctx, os.Getenv("GEMINI_API_KEY"), cfg.Models.ChatModel)
	if err != nil {
		return err
	}

	retriever := usecases.NewRetriever(embedder, b.store, cfg.Index.Namespace, cfg.Query.TopK)
	queryUC := usecases.NewQueryUseCase(retriever, chat, cfg.Query.ConfidenceThreshold, cfg.Query.MaxTurns, logger)

	if watchFlag && cfg.Ingestion.WatchDir != "" {
		if err := startCorpusWatcher(ctx, b, embedder); err != nil {
			return err
		}
	}

	return serverhttp.NewServer(queryUC, cfg.Server.Addr, logger).Start(ctx)
}

// startCorpusWatcher re-runs ingestion whenever a law source changes.
func startCorpusWatcher(ctx context.Context, b *backend, embedder ports.EmbeddingService) error {
	w, err := watcher.NewFSNotifyWatcher(nil)
	if err != nil {
		return fmt.Errorf("creating corpus watcher: %w", err)
	}
	events, err := w.Watch(ctx, cfg.Ingestion.WatchDir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", cfg.Ingestion.WatchDir, err)
	}
	logger.Info("watching law sources", zap.String("dir", cfg.Ingestion.WatchDir))

	ingestUC := buildIngest(b, embedder)
	go func() {
		defer w.Stop()
		for event := range events {
			if event.Operation == ports.FileDeleted {
				continue
			}
			logger.Info("law source changed, re-ingesting", zap.String("path", event.Path))
			if err := ingestUC.Run(ctx, cfg.Ingestion.Sources); err != nil {
				logger.Error("re-ingestion failed", zap.Error(err))
			}
		}
	}()
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	b, err := buildBackend()
	if err != nil {
		return err
	}

	stats, err := b.store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("describing index: %w", err)
	}
	fmt.Printf("index: %s\ndimension: %d\ntotal vectors: %d\n", cfg.Index.Name, stats.Dimension, stats.TotalVectors)
	for ns, n := range stats.Namespaces {
		fmt.Printf("namespace %s: %d vectors\n", ns, n)
	}

	if len(statsIDs) > 0 {
		chunks, err := b.store.Fetch(ctx, cfg.Index.Namespace, statsIDs)
		if err != nil {
			return fmt.Errorf("fetching vectors: %w", err)
		}
		for id, chunk := range chunks {
			fmt.Printf("---\nid: %s\njurisdiction: %s\ndocument: %s\nindex: %d\n", id, chunk.Jurisdiction, chunk.DocumentID, chunk.Index)
		}
	}
	return nil
}
