package config

import (
	"os"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.HNSW.M != 16 {
		t.Errorf("expected M=16, got %d", cfg.HNSW.M)
	}
	if cfg.HNSW.EfConstruction != 200 {
		t.Errorf("expected EfConstruction=200, got %d", cfg.HNSW.EfConstruction)
	}
	if cfg.HNSW.Mmax0 != 16 {
		t.Errorf("expected Mmax0=16, got %d", cfg.HNSW.Mmax0)
	}
	if cfg.HNSW.Metric != "cosine" {
		t.Errorf("expected metric cosine, got %s", cfg.HNSW.Metric)
	}
	if !cfg.Cache.Enabled {
		t.Error("expected cache enabled by default")
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected storage backend memory, got %s", cfg.Storage.Backend)
	}
	if cfg.Queue.Capacity != 256 {
		t.Errorf("expected queue capacity 256, got %d", cfg.Queue.Capacity)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	keys := []string{
		"HNSWDB_HOST", "HNSWDB_PORT", "HNSWDB_HNSW_M", "HNSWDB_HNSW_EF_CONSTRUCTION",
		"HNSWDB_HNSW_METRIC", "HNSWDB_CACHE_ENABLED", "HNSWDB_STORAGE_BACKEND",
	}
	saved := make(map[string]string)
	for _, k := range keys {
		saved[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range saved {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	os.Setenv("HNSWDB_HOST", "127.0.0.1")
	os.Setenv("HNSWDB_PORT", "9090")
	os.Setenv("HNSWDB_HNSW_M", "32")
	os.Setenv("HNSWDB_HNSW_EF_CONSTRUCTION", "400")
	os.Setenv("HNSWDB_HNSW_METRIC", "euclidean")
	os.Setenv("HNSWDB_CACHE_ENABLED", "false")
	os.Setenv("HNSWDB_STORAGE_BACKEND", "local")

	cfg := LoadFromEnv()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.HNSW.M != 32 {
		t.Errorf("expected M=32, got %d", cfg.HNSW.M)
	}
	if cfg.HNSW.EfConstruction != 400 {
		t.Errorf("expected EfConstruction=400, got %d", cfg.HNSW.EfConstruction)
	}
	if cfg.HNSW.Metric != "euclidean" {
		t.Errorf("expected metric euclidean, got %s", cfg.HNSW.Metric)
	}
	if cfg.Cache.Enabled {
		t.Error("expected cache disabled")
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("expected storage backend local, got %s", cfg.Storage.Backend)
	}
}

func TestLoadFromEnv_InvalidPortKeepsDefault(t *testing.T) {
	saved := os.Getenv("HNSWDB_PORT")
	defer func() {
		if saved == "" {
			os.Unsetenv("HNSWDB_PORT")
		} else {
			os.Setenv("HNSWDB_PORT", saved)
		}
	}()

	os.Setenv("HNSWDB_PORT", "not-a-number")
	cfg := LoadFromEnv()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080 for invalid value, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"

	contents := "server:\n  port: 9999\nhnsw:\n  m: 24\n  metric: euclidean\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.HNSW.M != 24 {
		t.Errorf("expected M=24, got %d", cfg.HNSW.M)
	}
	if cfg.HNSW.Metric != "euclidean" {
		t.Errorf("expected metric euclidean, got %s", cfg.HNSW.Metric)
	}
	// Unspecified fields retain their defaults.
	if cfg.HNSW.EfConstruction != 200 {
		t.Errorf("expected default EfConstruction=200, got %d", cfg.HNSW.EfConstruction)
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(*Config) {}, false},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"m too low", func(c *Config) { c.HNSW.M = 1 }, true},
		{"ef less than m", func(c *Config) { c.HNSW.EfConstruction = 1 }, true},
		{"bad metric", func(c *Config) { c.HNSW.Metric = "manhattan" }, true},
		{"tau out of range", func(c *Config) { c.HNSW.DefaultTau = 1.5 }, true},
		{"bad storage backend", func(c *Config) { c.Storage.Backend = "s3" }, true},
		{"local backend needs directory", func(c *Config) {
			c.Storage.Backend = "local"
			c.Storage.Directory = ""
		}, true},
		{"zero queue capacity", func(c *Config) { c.Queue.Capacity = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "localhost", Port: 8080}
	if got, want := cfg.Address(), "localhost:8080"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	defaultCfg := Default()
	if got, want := defaultCfg.Server.Address(), "0.0.0.0:8080"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
