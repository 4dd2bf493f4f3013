package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	get "github.com/hashicorp/go-getter"
	"gopkg.in/yaml.v3"
)

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Load reads a YAML settings file. An empty path returns defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Fetch downloads a settings file from any go-getter source (http, s3, git,
// local path) to dst and loads it.
func Fetch(ctx context.Context, src, dst string) (*Config, error) {
	if err := get.GetFile(dst, src, get.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("fetch config %s: %w", src, err)
	}
	return Load(dst)
}

// Marshal encodes cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config yaml: %w", err)
	}
	return data, nil
}

// Open picks the settings source for a command: remote (fetched to
// cachePath) when set, then path, then the defaults.
func Open(ctx context.Context, path, remote, cachePath string) (*Config, error) {
	if remote != "" {
		if cachePath == "" {
			cachePath = filepath.Join(os.TempDir(), "witchwood-settings.yaml")
		}
		return Fetch(ctx, remote, cachePath)
	}
	return Load(path)
}
