package config

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateDefaultConfig(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
}

func TestValidateDetectsInvalidConfigurations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero chunk size",
			mutate:  func(cfg *Config) { cfg.Terrain.ChunkSize = 0 },
			wantErr: "terrain.chunkSize must be positive",
		},
		{
			name:    "nan chunk size",
			mutate:  func(cfg *Config) { cfg.Terrain.ChunkSize = math.NaN() },
			wantErr: "terrain.chunkSize must be positive",
		},
		{
			name:    "zero resolution",
			mutate:  func(cfg *Config) { cfg.Terrain.Resolution = 0 },
			wantErr: "terrain.resolution must be at least 1",
		},
		{
			name:    "resolution past index range",
			mutate:  func(cfg *Config) { cfg.Terrain.Resolution = 1 << 16 },
			wantErr: "terrain.resolution must be at most 4096",
		},
		{
			name:    "too many octaves",
			mutate:  func(cfg *Config) { cfg.Terrain.Octaves = 64 },
			wantErr: "terrain.octaves must be in [0,16]",
		},
		{
			name:    "infinite amplitude",
			mutate:  func(cfg *Config) { cfg.Terrain.Amplitude = math.Inf(1) },
			wantErr: "terrain noise options must be finite",
		},
		{
			name:    "negative path width",
			mutate:  func(cfg *Config) { cfg.Terrain.PathWidth = -1 },
			wantErr: "terrain.pathWidth must be a non-negative number",
		},
		{
			name:    "tilt beyond vertical",
			mutate:  func(cfg *Config) { cfg.Terrain.MaxTreeTilt = 120 },
			wantErr: "terrain.maxTreeTilt must be in [0,90] degrees",
		},
		{
			name:    "negative view distance",
			mutate:  func(cfg *Config) { cfg.Stream.ViewDistance = -2 },
			wantErr: "stream.viewDistance cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("error %v does not wrap ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNormalizeClampsResolution(t *testing.T) {
	cfg := Default()
	cfg.Terrain.Resolution = 0
	cfg.Stream.ViewDistance = -1
	cfg.Normalize()
	if cfg.Terrain.Resolution != 1 {
		t.Fatalf("resolution: got %d, want 1", cfg.Terrain.Resolution)
	}
	if cfg.Stream.ViewDistance != 0 {
		t.Fatalf("view distance: got %d, want 0", cfg.Stream.ViewDistance)
	}

	cfg.Terrain.Resolution = 1 << 20
	cfg.Normalize()
	if cfg.Terrain.Resolution != MaxResolution {
		t.Fatalf("resolution: got %d, want %d", cfg.Terrain.Resolution, MaxResolution)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
seed: 42
terrain:
  chunkSize: 16
  resolution: 32
  flattenPointCount: 4
stream:
  viewDistance: 2
  staticTerrain: true
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Seed != 42 {
		t.Errorf("seed: got %d, want 42", cfg.Seed)
	}
	if cfg.Terrain.ChunkSize != 16 || cfg.Terrain.Resolution != 32 {
		t.Errorf("terrain: got size=%v res=%d", cfg.Terrain.ChunkSize, cfg.Terrain.Resolution)
	}
	if cfg.Terrain.Octaves != 4 {
		t.Errorf("octaves should keep default 4, got %d", cfg.Terrain.Octaves)
	}
	if !cfg.Stream.StaticTerrain || cfg.Stream.ViewDistance != 2 {
		t.Errorf("stream: got %+v", cfg.Stream)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("terrain:\n  chunkSize: -3\n"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Terrain.ChunkSize != Default().Terrain.ChunkSize {
		t.Fatalf("got chunk size %v, want default", cfg.Terrain.ChunkSize)
	}
}

func TestMarshalRoundTripThroughFile(t *testing.T) {
	cfg := Default()
	cfg.Seed = 7
	cfg.Stream.LODRange = 5
	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "world.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded != *cfg {
		t.Fatalf("got %+v, want %+v", loaded, cfg)
	}
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "remote.yaml")
	if err := os.WriteFile(src, []byte("seed: 99\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Fetch(context.Background(), src, filepath.Join(dir, "fetched", "world.yaml"))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if cfg.Seed != 99 {
		t.Fatalf("seed: got %d, want 99", cfg.Seed)
	}
}

func TestOpenPrefersRemote(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "local.yaml")
	remote := filepath.Join(dir, "remote.yaml")
	if err := os.WriteFile(local, []byte("seed: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(remote, []byte("seed: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	cfg, err := Open(ctx, local, remote, filepath.Join(dir, "cache.yaml"))
	if err != nil || cfg.Seed != 2 {
		t.Fatalf("remote: got %+v, %v", cfg, err)
	}
	cfg, err = Open(ctx, local, "", "")
	if err != nil || cfg.Seed != 1 {
		t.Fatalf("local: got %+v, %v", cfg, err)
	}
	cfg, err = Open(ctx, "", "", "")
	if err != nil || cfg.Seed != Default().Seed {
		t.Fatalf("defaults: got %+v, %v", cfg, err)
	}
}
