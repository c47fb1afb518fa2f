// Package file provides TOML-based configuration loading.
// API keys are read from the environment, never from the file.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Ingest    IngestConfig    `toml:"ingest"`
	Retriever RetrieverConfig `toml:"retriever"`
	Qdrant    QdrantConfig    `toml:"qdrant"`
	OpenAI    OpenAIConfig    `toml:"openai"`
	Storage   StorageConfig   `toml:"storage"`
	Transform []StageConfig   `toml:"transform"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`
}

// IngestConfig configures the ingestion surface.
type IngestConfig struct {
	// Dir is where uploads are saved and where the watcher looks for
	// dropped files.
	Dir string `toml:"dir"`

	// Watch enables the drop-directory watcher.
	Watch bool `toml:"watch"`
}

// RetrieverConfig configures retrieval behaviour.
type RetrieverConfig struct {
	// TopK is the maximum number of documents per retrieval.
	TopK int `toml:"top_k"`

	// CacheCapacity bounds the filter handle cache.
	CacheCapacity int `toml:"cache_capacity"`
}

// QdrantConfig configures the vector store. An empty URL selects the
// in-memory store instead.
type QdrantConfig struct {
	URL        string `toml:"url"`
	Collection string `toml:"collection"`

	// APIKey comes from QDRANT_API_KEY, not the file.
	APIKey string `toml:"-"`
}

// OpenAIConfig configures the embedding and completion services.
type OpenAIConfig struct {
	BaseURL        string `toml:"base_url"`
	LLMModel       string `toml:"llm_model"`
	EmbeddingModel string `toml:"embedding_model"`

	// APIKey comes from OPENAI_API_KEY, not the file.
	APIKey string `toml:"-"`
}

// StorageConfig configures the interaction log.
type StorageConfig struct {
	// DataDir holds the SQLite database. Empty means ~/.ragserve/data.
	DataDir string `toml:"data_dir"`

	// LogInteractions enables the audit log.
	LogInteractions bool `toml:"log_interactions"`
}

// StageConfig is one transformation pipeline stage.
type StageConfig struct {
	// Name selects a registered stage builder.
	Name string `toml:"name"`

	// Config carries stage-specific settings.
	Config map[string]any `toml:"config"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Ingest: IngestConfig{
			Dir: "ingestion_files",
		},
		Retriever: RetrieverConfig{
			TopK:          8,
			CacheCapacity: 256,
		},
		Qdrant: QdrantConfig{
			Collection: "rag_collection",
		},
		Storage: StorageConfig{
			LogInteractions: true,
		},
		Transform: []StageConfig{
			{Name: "splitter"},
		},
	}
}

// Load reads configuration from path, falling back to defaults when the
// file does not exist. An empty path means ~/.ragserve/config.toml.
// Environment variables supply the API keys in either case.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".ragserve", "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv fills in secrets from the environment.
func applyEnv(cfg *Config) {
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Qdrant.APIKey = os.Getenv("QDRANT_API_KEY")
}
