// Package config loads service settings from an optional YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Model  ModelConfig  `yaml:"model"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type ModelConfig struct {
	Path          string `yaml:"path"`
	Format        string `yaml:"format"`
	StatsPath     string `yaml:"stats_path"`
	OnnxLibrary   string `yaml:"onnx_library"`
	OnnxInputName string `yaml:"onnx_input_name"`
	OnnxOutput    string `yaml:"onnx_output_name"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           5001,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxBodyBytes:   1 << 20,
			AllowedOrigins: []string{"*"},
		},
		Model: ModelConfig{
			Path:      filepath.Join("models", "bp_cnn_bilstm.onnx"),
			Format:    "auto",
			StatsPath: filepath.Join("models", "normalization_stats.json"),
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults when path is non-empty, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	overrides := []struct {
		key string
		dst *string
	}{
		{"MODEL_PATH", &c.Model.Path},
		{"MODEL_FORMAT", &c.Model.Format},
		{"STATS_PATH", &c.Model.StatsPath},
		{"ONNXRUNTIME_LIB", &c.Model.OnnxLibrary},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FILE", &c.Log.File},
	}
	for _, o := range overrides {
		if v := getenv(o.key); v != "" {
			*o.dst = v
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model path is required")
	}
	if c.Model.StatsPath == "" {
		return fmt.Errorf("stats path is required")
	}
	return nil
}

// ResolvePaths makes relative artifact paths absolute against root.
func (c *Config) ResolvePaths(root string) {
	for _, p := range []*string{&c.Model.Path, &c.Model.StatsPath, &c.Log.File} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
}

// ProjectRoot returns the working directory, stepping up two levels when
// the binary runs from cmd/server.
func ProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if filepath.Base(dir) == "server" && filepath.Base(filepath.Dir(dir)) == "cmd" {
		dir = filepath.Join(dir, "..", "..")
	}
	return filepath.Clean(dir), nil
}
