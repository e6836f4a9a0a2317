// Package config loads the engine's key-value configuration file with
// viper, the way github.com/davrot/gogotex's backend loads its service
// config. The core only requires a workspace directory and an embedding
// model id; everything else (port, worker count, vector metric) has a
// sane default.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// Config is the engine's resolved configuration.
type Config struct {
	WorkspaceDir     string `mapstructure:"workspace_dir"`
	EmbeddingModelID string `mapstructure:"embedding_model_id"`
	WorkerCount      int    `mapstructure:"worker_count"`
	Port             int    `mapstructure:"port"`
	VectorMetric     string `mapstructure:"vector_metric"`
}

func defaults() Config {
	return Config{
		WorkspaceDir:     "./workspace",
		EmbeddingModelID: "default",
		WorkerCount:      1,
		Port:             8080,
		VectorMetric:     "cosine",
	}
}

// Load reads `path` (YAML, TOML, JSON, ... anything viper understands) if
// it exists, overlays environment variables prefixed DOCINDEX_, and fills
// in defaults for anything left unset.
func Load(path string) (Config, error) {
	v := viper.New()
	cfg := defaults()
	v.SetDefault("workspace_dir", cfg.WorkspaceDir)
	v.SetDefault("embedding_model_id", cfg.EmbeddingModelID)
	v.SetDefault("worker_count", cfg.WorkerCount)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("vector_metric", cfg.VectorMetric)

	v.SetEnvPrefix("docindex")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("config: read %q: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.WorkspaceDir == "" {
		return Config{}, fmt.Errorf("config: workspace_dir must not be empty")
	}
	if cfg.EmbeddingModelID == "" {
		return Config{}, fmt.Errorf("config: embedding_model_id must not be empty")
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	switch cfg.VectorMetric {
	case "l2", "ip", "cosine":
	default:
		return Config{}, fmt.Errorf("config: vector_metric must be one of l2, ip, cosine, got %q", cfg.VectorMetric)
	}
	return cfg, nil
}
