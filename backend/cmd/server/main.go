package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"newsgraph/backend/internal/api"
	"newsgraph/backend/internal/auth"
	"newsgraph/backend/internal/graph"
	"newsgraph/backend/internal/index"
	"newsgraph/backend/internal/query"
	"newsgraph/backend/pkg/config"
	"newsgraph/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting news graph API server...", zap.String("backend", cfg.GraphBackend))

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open graph store", zap.Error(err))
	}
	defer closeStore()

	guarded := graph.NewGuardedStore(store, graph.GuardOptions{
		Timeout:      cfg.StoreTimeout,
		Backoff:      cfg.StoreRetryBackoff,
		FailureRatio: cfg.BreakerFailureRatio,
	})

	// Build the first snapshot before accepting traffic
	holder := index.NewHolder(index.NewLoader(guarded, cfg.LoaderConcurrency))
	if _, err := holder.Refresh(ctx); err != nil {
		log.Fatal("Failed to build initial index snapshot", zap.Error(err))
	}
	if err := startRefresh(holder, cfg.IndexRefreshInterval, log); err != nil {
		log.Fatal("Failed to start snapshot refresh", zap.Error(err))
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		log.Fatal("Failed to create token verifier", zap.Error(err))
	}
	if verifier == nil {
		log.Warn("JWT_SECRET not set; identity-scoped queries will be rejected")
	}

	service := query.NewService(guarded, holder, query.Options{
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
	})

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandler(service, holder, log.Named("api")), verifier, log)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	holder.Stop(5 * time.Second)

	log.Info("Server exited")
}

// openStore connects the configured graph backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (graph.Store, func(), error) {
	switch cfg.GraphBackend {
	case config.BackendMemory:
		store, err := graph.LoadFixtureFile(cfg.FixturePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	case config.BackendNeo4j:
		driver, err := neo4j.NewDriverWithContext(
			cfg.Neo4jURI,
			neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
		}

		verifyCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		if err := driver.VerifyConnectivity(verifyCtx); err != nil {
			driver.Close(ctx)
			return nil, nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
		}

		repo := graph.NewRepository(driver, cfg.Neo4jDatabase)
		return repo, func() { repo.Close(context.Background()) }, nil
	}
	return nil, nil, fmt.Errorf("unknown graph backend: %s", cfg.GraphBackend)
}

// startRefresh runs periodic rebuilds unless interval is zero
func startRefresh(holder *index.Holder, interval time.Duration, log *zap.Logger) error {
	if interval == 0 {
		log.Info("Periodic snapshot refresh disabled; use POST /admin/refresh")
		return nil
	}
	return holder.Start(interval)
}

// newVerifier returns nil when no secret is configured
func newVerifier(cfg *config.Config) (*auth.Verifier, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
}
