// Package config loads configuration from environment variables and .env files.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the paperfind retrieval service.
type Config struct {
	// Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Object storage (artifacts + cleaned document text)
	ObjectStoreEndpoint  string `env:"OBJECT_STORE_ENDPOINT" envDefault:"localhost:9000"`
	ObjectStoreAccessKey string `env:"OBJECT_STORE_ACCESS_KEY"`
	ObjectStoreSecretKey string `env:"OBJECT_STORE_SECRET_KEY"`
	ObjectStoreUseSSL    bool   `env:"OBJECT_STORE_USE_SSL" envDefault:"false"`
	ObjectStoreBucket    string `env:"OBJECT_STORE_BUCKET" envDefault:"ml-papers"`

	// Resource artifact keys within the bucket
	SparseIndexKey  string `env:"SPARSE_INDEX_KEY" envDefault:"Index/sparse_index.db"`
	DenseIndexKey   string `env:"DENSE_INDEX_KEY" envDefault:"Index/dense_index.hnsw"`
	EncoderModelDir string `env:"ENCODER_MODEL_PREFIX" envDefault:"Models/splade-cocondenser-ensembledistil"`

	// Local cache paths for downloaded artifacts
	SparseIndexPath string `env:"SPARSE_INDEX_PATH" envDefault:"./data/sparse_index.db"`
	DenseIndexPath  string `env:"DENSE_INDEX_PATH" envDefault:"./data/dense_index.hnsw"`
	EncoderModelDst string `env:"ENCODER_MODEL_PATH" envDefault:"./data/splade-cocondenser-ensembledistil"`

	// Dense embedding vendor
	EmbeddingBaseURL   string `env:"EMBEDDING_BASE_URL" envDefault:"https://api.openai.com/v1"`
	EmbeddingAPIKey    string `env:"EMBEDDING_API_KEY"`
	EmbeddingModel     string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-large"`
	EmbeddingDimension int    `env:"EMBEDDING_DIMENSION" envDefault:"3072"`
	EmbeddingCacheSize int    `env:"EMBEDDING_CACHE_SIZE" envDefault:"1000"`

	// Extraction LLM vendor
	ExtractionBaseURL     string        `env:"EXTRACTION_BASE_URL" envDefault:"https://api.openai.com/v1"`
	ExtractionAPIKey      string        `env:"EXTRACTION_API_KEY"`
	ExtractionModel       string        `env:"EXTRACTION_MODEL" envDefault:"gpt-4.1-nano"`
	ExtractionConcurrency int           `env:"EXTRACTION_CONCURRENCY" envDefault:"8"`
	ExtractionTimeout     time.Duration `env:"EXTRACTION_TIMEOUT" envDefault:"60s"`

	// Retrieval tuning
	DefaultTopK  int `env:"DEFAULT_TOP_K" envDefault:"20"`
	MaxQueryTerm int `env:"MAX_QUERY_TOKENS" envDefault:"512"`
}

// Load loads configuration from a .env file (if present) and environment
// variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
