package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	AdminSecret string           `json:"admin_secret"`
	CORSAllow   []string         `json:"cors_allow"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	DocSource   DocSourceConfig  `json:"doc_source"`
	RAG         RAGConfig        `json:"rag"`
	LLM         ProviderConfig   `json:"llm"`
	Embedding   ProviderConfig   `json:"embedding"`
	EmbedCache  EmbedCacheConfig `json:"embed_cache"`
	Jobs        JobsConfig       `json:"jobs"`
}

type EmbedCacheConfig struct {
	LruSize   int `json:"lru_size"`
	LruTTLMin int `json:"lru_ttl_min"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type DocSourceConfig struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type RAGConfig struct {
	ChunkSize    int     `json:"chunk_size"`
	ChunkOverlap int     `json:"chunk_overlap"`
	RetrievalK   int     `json:"retrieval_k"`
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
	PromptLang   string  `json:"prompt_lang"`
}

type ProviderConfig struct {
	Provider string                 `json:"provider"`
	Model    string                 `json:"model"`
	Data     map[string]interface{} `json:"data"`
}

type JobsConfig struct {
	CacheCleanupCron string `json:"cache_cleanup_cron"`
	CacheKeepDays    int    `json:"cache_keep_days"`
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
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("database.dsn or database.host/database.dbname is required")
	}
	if cfg.AdminSecret == "" {
		return nil, fmt.Errorf("admin_secret is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.DocSource.Type == "" {
		cfg.DocSource.Type = "local"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 200
	}
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return nil, fmt.Errorf("rag.chunk_overlap (%d) must be smaller than rag.chunk_size (%d)", cfg.RAG.ChunkOverlap, cfg.RAG.ChunkSize)
	}
	if cfg.RAG.RetrievalK == 0 {
		cfg.RAG.RetrievalK = 4
	}
	if cfg.RAG.MaxTokens == 0 {
		cfg.RAG.MaxTokens = 2048
	}
	if cfg.RAG.Temperature == 0 {
		cfg.RAG.Temperature = 0.7
	}
	switch cfg.RAG.PromptLang {
	case "":
		cfg.RAG.PromptLang = "ja"
	case "ja", "en":
	default:
		return nil, fmt.Errorf("rag.prompt_lang must be ja or en, got %q", cfg.RAG.PromptLang)
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.EmbedCache.LruSize == 0 {
		cfg.EmbedCache.LruSize = 1024
	}
	if cfg.EmbedCache.LruTTLMin == 0 {
		cfg.EmbedCache.LruTTLMin = 60
	}
	if cfg.Jobs.CacheKeepDays == 0 {
		cfg.Jobs.CacheKeepDays = 30
	}
	return &cfg, nil
}
