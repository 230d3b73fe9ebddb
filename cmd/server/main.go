package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taskforge-hq/taskforge/internal/api"
	"github.com/taskforge-hq/taskforge/internal/api/health"
	"github.com/taskforge-hq/taskforge/internal/metrics"
	"github.com/taskforge-hq/taskforge/internal/storage"
	"github.com/taskforge-hq/taskforge/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "taskforge-server",
	Short: "TaskForge Server - Team task management backend",
	Long: `TaskForge Server provides the REST API for team projects, tasks,
membership management, statistics, and reporting.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskforge-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	cfg.Verbose = verbose

	// Get JWT secret from environment
	jwtSecret := os.Getenv("TASKFORGE_JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("TASKFORGE_JWT_SECRET environment variable is required")
	}
	if len(jwtSecret) < 32 {
		return fmt.Errorf("TASKFORGE_JWT_SECRET must be at least 32 bytes")
	}

	// Auto-create data directory
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Initialize storage
	store := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Create default admin user on first run
	if err := store.EnsureAdminUser(); err != nil {
		return fmt.Errorf("ensure admin user: %w", err)
	}

	log.Printf("database initialized at %s", cfg.Database.Path)

	// Build API server config
	apiCfg := &api.Config{
		Address:          cfg.Server.Address,
		JWTSecret:        []byte(jwtSecret),
		FileStoreDir:     cfg.Files.Dir,
		HTTPTLSEnabled:   cfg.Server.TLS.Enabled,
		HTTPTLSCertFile:  cfg.Server.TLS.CertFile,
		HTTPTLSKeyFile:   cfg.Server.TLS.KeyFile,
		AccessTokenTTL:   duration(cfg.Auth.AccessTokenTTL),
		RefreshTokenTTL:  duration(cfg.Auth.RefreshTokenTTL),
		RateLimitPerIP:   cfg.RateLimit.PerIP,
		RateLimitPerUser: cfg.RateLimit.PerUser,
		LockoutThreshold: cfg.Auth.LockoutThreshold,
		LockoutDuration:  duration(cfg.Auth.LockoutDuration),
		Verbose:          cfg.Verbose,
	}

	srv, err := api.New(apiCfg, store)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	srv.RegisterHealthChecker(health.NewSQLiteChecker(store.DB()))
	srv.RegisterHealthChecker(health.NewFileStoreChecker(cfg.Files.Dir))

	metricsSrv := metrics.NewServer(cfg.Server.MetricsAddress)
	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("starting taskforge-server %s", config.Version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		return metricsSrv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}
