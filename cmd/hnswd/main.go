// Command hnswd runs the HNSW graph engine behind a REST façade: it wires
// configuration, the persistent snapshot adapter, the mutation queue, and
// observability together and serves spec.md's operation surface over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arvindnair/hnswdb/pkg/api/rest"
	"github.com/arvindnair/hnswdb/pkg/api/rest/middleware"
	"github.com/arvindnair/hnswdb/pkg/config"
	"github.com/arvindnair/hnswdb/pkg/hnsw"
	"github.com/arvindnair/hnswdb/pkg/observability"
	"github.com/arvindnair/hnswdb/pkg/queue"
	"github.com/arvindnair/hnswdb/pkg/service"
	"github.com/arvindnair/hnswdb/pkg/storage"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		showHelp    = flag.Bool("help", false, "show help and exit")
		configFile  = flag.String("config", "", "path to a YAML configuration file (optional)")
		host        = flag.String("host", "", "server host (overrides config/env)")
		port        = flag.Int("port", 0, "server port (overrides config/env)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("hnswd v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}
	if *showHelp {
		showUsage()
		os.Exit(0)
	}

	printBanner()

	cfg := loadConfig(*configFile)
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.ParseLogLevel(cfg.LogLevel), nil)
	metrics := observability.NewMetrics()

	idx, err := hnsw.New(hnsw.Config{
		M:              cfg.HNSW.M,
		EfConstruction: cfg.HNSW.EfConstruction,
		Mmax0:          cfg.HNSW.Mmax0,
		Metric:         hnsw.Metric(cfg.HNSW.Metric),
	})
	if err != nil {
		logger.Fatal("failed to build hnsw index", map[string]interface{}{"error": err.Error()})
	}

	store, err := buildStore(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to build storage backend", map[string]interface{}{"error": err.Error()})
	}

	var cache *service.SearchCache
	if cfg.Cache.Enabled {
		cache = service.NewSearchCache(cfg.Cache.Capacity, cfg.Cache.TTL)
	}

	svc := service.New(idx, store, cfg.Storage.IndexName, cfg.Queue.Capacity, cache, logger, metrics, service.SearchDefaults{
		Ef:       cfg.HNSW.DefaultEf,
		BeamSize: cfg.HNSW.DefaultBeam,
		Tau:      float32(cfg.HNSW.DefaultTau),
	})
	if cfg.Queue.OffloadEnabled {
		svc = svc.WithExecutor(queue.NewLocalExecutor())
	}
	defer svc.Close()

	server := rest.NewServer(rest.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		Version:     version,
		CORSEnabled: true,
		CORSOrigins: []string{"*"},
		Auth: middleware.AuthConfig{
			JWTSecret:   cfg.Server.JWTSecret,
			Enabled:     cfg.Server.JWTSecret != "",
			PublicPaths: []string{"/v1/health", "/docs"},
			AdminPaths:  []string{"/v1/index:rebuild", "/v1/snapshot:save", "/v1/snapshot:load"},
		},
		RateLimit: middleware.RateLimitConfig{
			Enabled:        cfg.Server.RateLimitRPS > 0,
			RequestsPerSec: cfg.Server.RateLimitRPS,
			Burst:          cfg.Server.RateLimitBurst,
		},
	}, svc, logger)

	go func() {
		logger.Info("hnswd listening", map[string]interface{}{"address": cfg.Server.Address()})
		if err := server.Start(); err != nil {
			logger.Fatal("server exited", map[string]interface{}{"error": err.Error()})
		}
	}()

	printStartupInfo(cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("received shutdown signal", map[string]interface{}{"signal": sig.String()})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("error during shutdown", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("hnswd stopped", nil)
}

func buildStore(cfg config.StorageConfig) (storage.Store, error) {
	var store storage.Store
	switch cfg.Backend {
	case "local":
		s, err := storage.NewLocalStore(cfg.Directory)
		if err != nil {
			return nil, fmt.Errorf("build local store: %w", err)
		}
		store = s
	default:
		store = storage.NewMemoryStore()
	}

	if cfg.Compress {
		store = storage.NewCompressingStore(store)
	}
	return store, nil
}

func loadConfig(configFile string) *config.Config {
	if configFile != "" {
		cfg, err := config.LoadFromFile(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config file %s: %v\n", configFile, err)
			os.Exit(1)
		}
		return cfg
	}
	return config.LoadFromEnv()
}

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║   __  __ _   _______        __  ____  ____              ║
║  / / / // | / / ___/ |     / / / __ \/ __ )             ║
║ / /_/ //  |/ /\__ \| | /| / / / / / / __  |             ║
║/ __  // /|  /___/ /| |/ |/ / / /_/ / /_/ /              ║
║/_/ /_//_/ |_//____/ |__/|__/  \____/_____/              ║
║                                                           ║
║   HNSW approximate nearest-neighbor index server         ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("Version: %s (commit: %s)\n\n", version, commit)
}

func printStartupInfo(cfg *config.Config) {
	fmt.Println("\n╔════════════════════════════════════════════════════════╗")
	fmt.Println("║               Server Configuration                     ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Address:          %-35s ║\n", cfg.Server.Address())
	fmt.Printf("║ Log level:        %-35s ║\n", cfg.LogLevel)
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║               HNSW Configuration                       ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ M:                %-35d ║\n", cfg.HNSW.M)
	fmt.Printf("║ Mmax0:            %-35d ║\n", cfg.HNSW.Mmax0)
	fmt.Printf("║ efConstruction:   %-35d ║\n", cfg.HNSW.EfConstruction)
	fmt.Printf("║ metric:           %-35s ║\n", cfg.HNSW.Metric)
	fmt.Printf("║ default ef:       %-35d ║\n", cfg.HNSW.DefaultEf)
	fmt.Printf("║ default tau:      %-35v ║\n", cfg.HNSW.DefaultTau)
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║               Storage / Cache                          ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Storage backend:  %-35s ║\n", cfg.Storage.Backend)
	fmt.Printf("║ Compress:         %-35v ║\n", cfg.Storage.Compress)
	fmt.Printf("║ Cache enabled:    %-35v ║\n", cfg.Cache.Enabled)
	fmt.Printf("║ Cache capacity:   %-35d ║\n", cfg.Cache.Capacity)
	fmt.Println("╚════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func showUsage() {
	fmt.Println("hnswd - HNSW approximate nearest-neighbor index server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  hnswd [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -help             Show this help message")
	fmt.Println("  -version          Show version information")
	fmt.Println("  -config PATH      Path to a YAML configuration file")
	fmt.Println("  -host HOST        Server host (default: 0.0.0.0)")
	fmt.Println("  -port PORT        Server port (default: 8080)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  HNSWDB_HOST                  Server host")
	fmt.Println("  HNSWDB_PORT                  Server port")
	fmt.Println("  HNSWDB_REQUEST_TIMEOUT       Request timeout (e.g., 30s)")
	fmt.Println("  HNSWDB_JWT_SECRET            JWT signing secret (enables auth)")
	fmt.Println("  HNSWDB_HNSW_M                HNSW M parameter")
	fmt.Println("  HNSWDB_HNSW_EF_CONSTRUCTION  HNSW efConstruction")
	fmt.Println("  HNSWDB_HNSW_MMAX0            HNSW level-0 degree bound")
	fmt.Println("  HNSWDB_HNSW_METRIC           cosine or euclidean")
	fmt.Println("  HNSWDB_CACHE_ENABLED         Enable search-result cache (true/false)")
	fmt.Println("  HNSWDB_CACHE_CAPACITY        Cache capacity")
	fmt.Println("  HNSWDB_CACHE_TTL             Cache TTL (e.g., 5m)")
	fmt.Println("  HNSWDB_STORAGE_BACKEND       memory or local")
	fmt.Println("  HNSWDB_STORAGE_DIR           Data directory for the local backend")
	fmt.Println("  HNSWDB_STORAGE_COMPRESS      Compress snapshots with zstd (true/false)")
	fmt.Println("  HNSWDB_LOG_LEVEL             debug, info, warn, or error")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  hnswd")
	fmt.Println("  hnswd -port 8080")
	fmt.Println("  hnswd -config config.yaml")
	fmt.Println("  HNSWDB_STORAGE_BACKEND=local HNSWDB_STORAGE_DIR=./data hnswd")
	fmt.Println()
}
