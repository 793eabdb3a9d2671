// Package config loads pokeview settings.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Assets   AssetsConfig   `yaml:"assets"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

type AssetsConfig struct {
	// Root is a local directory or an http(s) base URL.
	Root    string        `yaml:"root"`
	Timeout time.Duration `yaml:"timeout"`
}

type PipelineConfig struct {
	TargetSize float32 `yaml:"target_size"`
	YOffset    float32 `yaml:"y_offset"`
	BatchSize  int     `yaml:"batch_size"`
	// TextureLimit caps the larger side of embedded textures. 0 keeps the original size.
	TextureLimit int `yaml:"texture_limit"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type CatalogConfig struct {
	File string `yaml:"file"`
}

func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			Root:    "./public",
			Timeout: 30 * time.Second,
		},
		Pipeline: PipelineConfig{
			TargetSize: 4,
			BatchSize:  20,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath is read when no config file is given explicitly.
const DefaultPath = "./pokeview.yaml"

// Load builds the configuration: defaults < file < flags.
// path may be empty, in which case DefaultPath is used if it exists.
func Load(path string, flags *Flags) (*Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, errors.Wrapf(err, "loading config from %s", path)
		}
	}
	if flags != nil {
		flags.apply(cfg)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Save writes cfg as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
