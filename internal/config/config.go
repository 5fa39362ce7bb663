// Package config loads the application configuration.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
)

// ServerConfig configures the HTTP query endpoint.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// PineconeConfig contains connection details for the Pinecone backend.
type PineconeConfig struct {
	Cloud  string `yaml:"cloud"`
	Region string `yaml:"region"`
}

// SQLiteConfig configures the local persistent backend.
type SQLiteConfig struct {
	DataPath string `yaml:"data_path"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Type     string          `yaml:"type"` // pinecone | sqlite | memory
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
	SQLite   *SQLiteConfig   `yaml:"sqlite,omitempty"`
}

// IndexConfig describes the target index and namespace.
type IndexConfig struct {
	Name      string `yaml:"name"`
	Dimension int    `yaml:"dimension"`
	Metric    string `yaml:"metric"`
	Namespace string `yaml:"namespace"`
}

// ChunkingConfig configures how documents are split.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// IngestionConfig lists the law sources and batch settings.
type IngestionConfig struct {
	BatchSize     int                  `yaml:"batch_size"`
	PDFServiceURL string               `yaml:"pdf_service_url"`
	WatchDir      string               `yaml:"watch_dir"`
	Sources       []entities.LawSource `yaml:"sources"`
}

// QueryConfig tunes the dialogue loop.
type QueryConfig struct {
	TopK                int `yaml:"top_k"`
	ConfidenceThreshold int `yaml:"confidence_threshold"`
	MaxTurns            int `yaml:"max_turns"`
}

// ModelsConfig names the external model services.
type ModelsConfig struct {
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
	EmbeddingURL   string `yaml:"embedding_url"`
}

// Config is the root application configuration structure.
// API keys come from the environment, never from this file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Index     IndexConfig     `yaml:"index"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Query     QueryConfig     `yaml:"query"`
	Models    ModelsConfig    `yaml:"models"`
}

// Load reads a config from the given path. A missing file returns defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "pinecone"
	}
	if cfg.Store.Pinecone == nil {
		cfg.Store.Pinecone = &PineconeConfig{}
	}
	if cfg.Store.Pinecone.Cloud == "" {
		cfg.Store.Pinecone.Cloud = "aws"
	}
	if cfg.Store.Pinecone.Region == "" {
		cfg.Store.Pinecone.Region = "us-east-1"
	}
	if cfg.Store.SQLite == nil {
		cfg.Store.SQLite = &SQLiteConfig{}
	}
	if cfg.Store.SQLite.DataPath == "" {
		cfg.Store.SQLite.DataPath = "./data"
	}
	if cfg.Index.Name == "" {
		cfg.Index.Name = "import-export-law"
	}
	if cfg.Index.Dimension == 0 {
		cfg.Index.Dimension = 1024
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = "cosine"
	}
	if cfg.Index.Namespace == "" {
		cfg.Index.Namespace = "import-export-law"
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = 1000
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 100
	}
	if cfg.Ingestion.BatchSize == 0 {
		cfg.Ingestion.BatchSize = 50
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = 10
	}
	if cfg.Query.ConfidenceThreshold == 0 {
		cfg.Query.ConfidenceThreshold = 80
	}
	if cfg.Query.MaxTurns == 0 {
		cfg.Query.MaxTurns = 5
	}
	if cfg.Models.ChatModel == "" {
		cfg.Models.ChatModel = "gemini-2.0-flash"
	}
	if cfg.Models.EmbeddingModel == "" {
		cfg.Models.EmbeddingModel = "mistral-embed"
	}
}
