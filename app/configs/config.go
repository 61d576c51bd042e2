package configs

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	LLM       LLMConfig       `yaml:"llm"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Storage   StorageConfig   `yaml:"storage"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr" validate:"required"`
	MaxUploadMB int64  `yaml:"max_upload_mb" validate:"gt=0"`
}

type QdrantConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"gte=0,lte=65535"`
}

type LLMConfig struct {
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model" validate:"required"`
	EmbeddingsModel string `yaml:"embeddings_model" validate:"required"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size" validate:"gt=0"`
	Overlap int `yaml:"overlap" validate:"gte=0,ltfield=Size"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k" validate:"gt=0"`
}

type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

func defaults() *Config {
	return &Config{
		Server:    ServerConfig{Addr: ":8080", MaxUploadMB: 25},
		Qdrant:    QdrantConfig{Host: "localhost", Port: 6334},
		LLM:       LLMConfig{Model: "gpt-4o-mini", EmbeddingsModel: "text-embedding-3-small"},
		Chunking:  ChunkingConfig{Size: 1000, Overlap: 200},
		Retrieval: RetrievalConfig{TopK: 5},
	}
}

// LoadConfig reads the YAML config at path, expanding ${ENV} references
// first. A missing file yields the defaults. Validation failures (for
// example chunk overlap >= size) abort startup.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("📂 No config file at %s, using defaults", path)
	case err != nil:
		return nil, fmt.Errorf("read configs file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
