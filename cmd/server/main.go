package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	fiberredis "github.com/gofiber/storage/redis/v3"

	"searchrank/internal/config"
	"searchrank/internal/db"
	"searchrank/internal/handlers/api"
	"searchrank/internal/jobs"
	"searchrank/internal/memo"
	"searchrank/internal/metrics"
	"searchrank/internal/middleware"
	"searchrank/internal/ranked"
	"searchrank/internal/search"
	"searchrank/internal/server"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	if cfg.IsDev() {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}

	checks := make(map[string]api.Checker)

	// Durable store
	var store search.KeywordStore
	switch cfg.DurableBackend {
	case "memory":
		log.Println("Using in-memory durable store; counts are lost on restart")
		store = db.NewMemoryStore()
	default:
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Migrations completed successfully")

		store = database
		checks["postgres"] = database.Pool.Ping
	}

	// Redis: ranked cache and, optionally, the memo layer
	storage := fiberredis.New(fiberredis.Config{URL: cfg.RedisURL})
	defer storage.Close()
	client := storage.Conn()
	checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }

	cache := ranked.New(client,
		ranked.WithKeys(cfg.PopularKey, cfg.RecentKey),
		ranked.WithRecentSize(cfg.RecentSize),
	)

	var layer memo.Layer
	switch cfg.MemoBackend {
	case "redis":
		layer = memo.NewRedis(storage, cfg.MemoTTL, nil)
	default:
		layer = memo.NewMemory(cfg.MemoMaxEntries, cfg.MemoTTL)
	}

	tasks := jobs.NewDispatcher(cfg.AsyncPersistTimeout, nil)
	svc := search.New(store, cache, layer, tasks, nil)
	metrics.Init(svc)

	if cfg.IsDev() {
		if increments, recent := yamlCfg.SeedIncrements(); len(increments) > 0 {
			if err := svc.RecordSearchBatch(ctx, increments, recent); err != nil {
				log.Printf("Warning: failed to seed keywords: %v", err)
			} else {
				log.Printf("Seeded %d keywords", len(increments))
			}
		}
	}

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	if cfg.DriftCheckInterval > 0 {
		go jobs.NewDriftMonitor(svc, cfg.DriftCheckInterval, nil).Start(monitorCtx)
	}

	// Admin auth - only initialize if OIDC is configured
	var verifier middleware.TokenVerifier
	if cfg.IsAdminAuthEnabled() {
		verifier, err = middleware.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			log.Fatalf("Failed to initialize OIDC verifier: %v", err)
		}
	}

	srv := server.New(cfg)
	srv.RegisterRoutes(server.Dependencies{
		Search: svc,
		Auth:   middleware.NewAuthMiddleware(verifier),
		Limits: yamlCfg.Limits,
		Checks: checks,
	})

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server started on %s", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopMonitor()
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.AsyncPersistTimeout)
	defer cancel()
	if err := tasks.Wait(drainCtx); err != nil {
		log.Printf("Warning: background writes still running at exit: %v", err)
	}
	log.Println("Server exited")
}
