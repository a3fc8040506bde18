package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	HNSW    HNSWConfig    `yaml:"hnsw"`
	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
	Queue   QueueConfig   `yaml:"queue"`
	LogLevel string       `yaml:"log_level"`
}

// ServerConfig holds the REST façade's HTTP server configuration.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	JWTSecret       string        `yaml:"jwt_secret"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
}

// HNSWConfig holds the graph engine's tuning parameters (spec.md §6's
// closed configuration set).
type HNSWConfig struct {
	M              int    `yaml:"m"`
	EfConstruction int    `yaml:"ef_construction"`
	Mmax0          int    `yaml:"mmax0"`
	Metric         string `yaml:"metric"`
	DefaultEf      int    `yaml:"default_ef"`
	DefaultTau     float64 `yaml:"default_tau"`
	DefaultBeam    int    `yaml:"default_beam"`
}

// CacheConfig holds search-result cache configuration.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
}

// StorageConfig selects and configures the persistent snapshot adapter.
type StorageConfig struct {
	Backend   string `yaml:"backend"` // "memory" or "local"
	Directory string `yaml:"directory"`
	IndexName string `yaml:"index_name"`
	Compress  bool   `yaml:"compress"`
}

// QueueConfig configures the mutation serializer.
type QueueConfig struct {
	Capacity       int  `yaml:"capacity"`
	OffloadEnabled bool `yaml:"offload_enabled"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  100,
		},
		HNSW: HNSWConfig{
			M:              16,
			EfConstruction: 200,
			Mmax0:          16,
			Metric:         "cosine",
			DefaultEf:      200,
			DefaultTau:     0.5,
			DefaultBeam:    10,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 1000,
			TTL:      5 * time.Minute,
		},
		Storage: StorageConfig{
			Backend:   "memory",
			Directory: "./data",
			IndexName: "primary",
			Compress:  false,
		},
		Queue: QueueConfig{
			Capacity:       256,
			OffloadEnabled: false,
		},
		LogLevel: "info",
	}
}

// LoadFromFile reads a YAML configuration file, starting from Default() and
// overlaying whatever the file specifies.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables, starting from
// Default().
func LoadFromEnv() *Config {
	cfg := Default()

	if host := os.Getenv("HNSWDB_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("HNSWDB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if timeout := os.Getenv("HNSWDB_REQUEST_TIMEOUT"); timeout != "" {
		if t, err := time.ParseDuration(timeout); err == nil {
			cfg.Server.RequestTimeout = t
		}
	}
	if secret := os.Getenv("HNSWDB_JWT_SECRET"); secret != "" {
		cfg.Server.JWTSecret = secret
	}

	if m := os.Getenv("HNSWDB_HNSW_M"); m != "" {
		if v, err := strconv.Atoi(m); err == nil {
			cfg.HNSW.M = v
		}
	}
	if ef := os.Getenv("HNSWDB_HNSW_EF_CONSTRUCTION"); ef != "" {
		if v, err := strconv.Atoi(ef); err == nil {
			cfg.HNSW.EfConstruction = v
		}
	}
	if mmax0 := os.Getenv("HNSWDB_HNSW_MMAX0"); mmax0 != "" {
		if v, err := strconv.Atoi(mmax0); err == nil {
			cfg.HNSW.Mmax0 = v
		}
	}
	if metric := os.Getenv("HNSWDB_HNSW_METRIC"); metric != "" {
		cfg.HNSW.Metric = metric
	}

	if cacheEnabled := os.Getenv("HNSWDB_CACHE_ENABLED"); cacheEnabled == "false" {
		cfg.Cache.Enabled = false
	}
	if capacity := os.Getenv("HNSWDB_CACHE_CAPACITY"); capacity != "" {
		if v, err := strconv.Atoi(capacity); err == nil {
			cfg.Cache.Capacity = v
		}
	}
	if ttl := os.Getenv("HNSWDB_CACHE_TTL"); ttl != "" {
		if t, err := time.ParseDuration(ttl); err == nil {
			cfg.Cache.TTL = t
		}
	}

	if backend := os.Getenv("HNSWDB_STORAGE_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if dir := os.Getenv("HNSWDB_STORAGE_DIR"); dir != "" {
		cfg.Storage.Directory = dir
	}
	if compress := os.Getenv("HNSWDB_STORAGE_COMPRESS"); compress == "true" {
		cfg.Storage.Compress = true
	}

	if logLevel := os.Getenv("HNSWDB_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg
}

// Validate checks whether the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}

	if c.HNSW.M < 2 {
		return fmt.Errorf("invalid hnsw.m: %d (must be >= 2)", c.HNSW.M)
	}
	if c.HNSW.EfConstruction < c.HNSW.M {
		return fmt.Errorf("invalid hnsw.ef_construction: %d (must be >= m=%d)", c.HNSW.EfConstruction, c.HNSW.M)
	}
	switch c.HNSW.Metric {
	case "cosine", "euclidean":
	default:
		return fmt.Errorf("invalid hnsw.metric: %q (must be cosine or euclidean)", c.HNSW.Metric)
	}
	if c.HNSW.DefaultTau < 0 || c.HNSW.DefaultTau > 1 {
		return fmt.Errorf("invalid hnsw.default_tau: %v (must be in [0,1])", c.HNSW.DefaultTau)
	}

	if c.Cache.Enabled && c.Cache.Capacity < 1 {
		return fmt.Errorf("invalid cache.capacity: %d (must be > 0)", c.Cache.Capacity)
	}

	switch c.Storage.Backend {
	case "memory", "local":
	default:
		return fmt.Errorf("invalid storage.backend: %q (must be memory or local)", c.Storage.Backend)
	}
	if c.Storage.Backend == "local" && c.Storage.Directory == "" {
		return fmt.Errorf("storage.directory must be set for the local backend")
	}
	if c.Storage.IndexName == "" {
		return fmt.Errorf("storage.index_name must not be empty")
	}

	if c.Queue.Capacity < 1 {
		return fmt.Errorf("invalid queue.capacity: %d (must be > 0)", c.Queue.Capacity)
	}

	return nil
}

// Address returns the server's host:port.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
