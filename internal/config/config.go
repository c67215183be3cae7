package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	// AskRateLimitSeconds throttles the model-backed ask endpoint per
	// client. Zero disables throttling.
	AskRateLimitSeconds int `json:"ask_rate_limit_seconds"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	VectorStore   VectorStoreConfig `json:"vector_store"`
	AI            AIConfig         `json:"ai"`
	EmbedCache    EmbedCacheConfig `json:"embed_cache"`
	Chunking      ChunkingConfig   `json:"chunking"`
	Query         QueryConfig      `json:"query"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type VectorStoreConfig struct {
	Type     string         `json:"type"`
	Weaviate WeaviateConfig `json:"weaviate"`
}

type WeaviateConfig struct {
	Host   string `json:"host"`
	APIKey string `json:"api_key"`
	Class  string `json:"class"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	ChatModel      string      `json:"chat_model"`
	EmbedModel     string      `json:"embed_model"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	Args           interface{} `json:"args"`
}

type EmbedCacheConfig struct {
	LRUSize    int  `json:"lru_size"`
	TTLMinutes int  `json:"ttl_minutes"`
	EnableDB   bool `json:"enable_db"`
	KeepDays   int  `json:"keep_days"`
}

type ChunkingConfig struct {
	Strategy          string `json:"strategy"`
	SentencesPerChunk int    `json:"sentences_per_chunk"`
	ChunkSize         int    `json:"chunk_size"`
}

type QueryConfig struct {
	// DistanceThreshold separates relevant hits from noise. The scale is
	// tied to the embedding model and store distance metric; recalibrate
	// when either changes.
	DistanceThreshold float64 `json:"distance_threshold"`
	OversampleFloor   int     `json:"oversample_floor"`
	DefaultTopK       int     `json:"default_top_k"`
	Stateful          bool    `json:"stateful"`
	MaxHistory        int     `json:"max_history"`
	Sentinel          string  `json:"sentinel"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "pgvector"
	}
	switch cfg.VectorStore.Type {
	case "pgvector":
		if cfg.Database.DSN == "" && cfg.Database.Host == "" {
			return fmt.Errorf("database.dsn or database.host is required for pgvector store")
		}
	case "weaviate":
		if cfg.VectorStore.Weaviate.Host == "" {
			return fmt.Errorf("vector_store.weaviate.host is required")
		}
		if cfg.VectorStore.Weaviate.Class == "" {
			cfg.VectorStore.Weaviate.Class = "DocChunk"
		}
		if cfg.EmbedCache.EnableDB {
			return fmt.Errorf("embed_cache.enable_db requires the pgvector store")
		}
	default:
		return fmt.Errorf("vector_store.type must be pgvector or weaviate")
	}
	if cfg.AI.Provider == "" {
		return fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.ChatModel == "" || cfg.AI.EmbedModel == "" {
		return fmt.Errorf("ai.chat_model and ai.embed_model are required")
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.EmbedCache.LRUSize == 0 {
		cfg.EmbedCache.LRUSize = 10000
	}
	if cfg.EmbedCache.TTLMinutes == 0 {
		cfg.EmbedCache.TTLMinutes = 120
	}
	if cfg.EmbedCache.KeepDays == 0 {
		cfg.EmbedCache.KeepDays = 30
	}
	if cfg.Chunking.Strategy == "" {
		cfg.Chunking.Strategy = "sentence"
	}
	if cfg.Chunking.Strategy != "sentence" && cfg.Chunking.Strategy != "character" {
		return fmt.Errorf("chunking.strategy must be sentence or character")
	}
	if cfg.Chunking.SentencesPerChunk == 0 {
		cfg.Chunking.SentencesPerChunk = 5
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Query.DistanceThreshold == 0 {
		cfg.Query.DistanceThreshold = 1.0
	}
	if cfg.Query.OversampleFloor == 0 {
		cfg.Query.OversampleFloor = 10
	}
	if cfg.Query.DefaultTopK == 0 {
		cfg.Query.DefaultTopK = 5
	}
	if cfg.Query.MaxHistory == 0 {
		cfg.Query.MaxHistory = 10
	}
	if cfg.Query.Sentinel == "" {
		cfg.Query.Sentinel = "LLM_NO_ANSWER_IN_CONTEXT"
	}
	return nil
}
