package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"haoshi-console/internal/auth"
	"haoshi-console/internal/backend"
	"haoshi-console/internal/cleanup"
	"haoshi-console/internal/config"
	"haoshi-console/internal/database"
	"haoshi-console/internal/editing"
	"haoshi-console/internal/handlers"
	"haoshi-console/internal/listing"
	"haoshi-console/internal/logger"
	"haoshi-console/internal/ratelimit"
	"haoshi-console/internal/scheduler"
	"haoshi-console/internal/search"
	"haoshi-console/internal/session"
	"haoshi-console/internal/store"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	}

	zapLogger, err := logger.NewLogger(appConfig.Logging.Level, appConfig.Logging.Format, "haoshi-console")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	if err := run(appConfig, zapLogger); err != nil {
		zapLogger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Audit database
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		zapLogger.Info("Audit database ready", zap.String("driver", cfg.Database.Driver))
	} else {
		zapLogger.Info("Audit database disabled")
	}

	// Search index
	var searchClient *search.SearchClient
	if cfg.Search.Host != "" {
		searchClient = search.NewSearchClient(cfg.Search.Host, cfg.Search.APIKey, cfg.Search.Index)
		if err := searchClient.InitIndex(); err != nil {
			zapLogger.Warn("Search index init failed", zap.Error(err))
		} else {
			zapLogger.Info("Search enabled", zap.String("host", cfg.Search.Host))
		}
	}

	// Record store and webhook gateway
	st := store.New()
	opts := []backend.Option{
		backend.WithFallback(cfg.Backend.LocalFallback),
		backend.WithBreaker(backend.NewCircuitBreaker(cfg.Backend.BreakerThreshold, cfg.Backend.GetBreakerReset(), zapLogger)),
	}
	if db != nil {
		opts = append(opts, backend.WithAuditor(db), backend.WithChangeLog(db))
	}
	if searchClient != nil {
		opts = append(opts, backend.WithIndexer(searchClient))
	}
	gateway := backend.NewGateway(backend.NewWebhookClient(cfg.Webhook, zapLogger), backend.NewLocalFallback(), st, zapLogger, opts...)

	if _, err := gateway.Refresh(ctx); err != nil {
		zapLogger.Warn("Initial refresh failed", zap.Error(err))
	}

	// Sessions
	sessions, closeSessions, err := openSessions(ctx, cfg.Session, zapLogger)
	if err != nil {
		return err
	}
	defer closeSessions()

	engine := listing.NewEngine(cfg.Console)
	editor := editing.NewController(gateway, st, engine.ReferenceYear, zapLogger)

	// Background jobs
	var cleanupService *cleanup.Service
	var cleaner scheduler.Cleaner
	if db != nil {
		cleanupService = cleanup.NewService(db, zapLogger)
		cleaner = cleanupService
	}
	var limiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rl := cfg.RateLimit
		limiter = ratelimit.NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.RequestsPerDay, true)
	}

	appScheduler := scheduler.NewScheduler(gateway, cleaner, cfg.Scheduler, cfg.Location(), zapLogger)
	if limiter != nil {
		appScheduler.SetPruner(limiter)
	}
	if err := appScheduler.Start(); err != nil {
		return err
	}
	defer appScheduler.Stop()

	deps := handlers.Deps{
		Gateway:   gateway,
		Engine:    engine,
		Editor:    editor,
		Sessions:  sessions,
		Tokens:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.GetTokenTTL()),
		Database:  db,
		Cleanup:   cleanupService,
		Scheduler: appScheduler,
		Limiter:   limiter,
		DemoLogin: cfg.Auth.DemoLogin,
		Logger:    zapLogger,
	}
	if searchClient != nil {
		deps.Search = searchClient
	}

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	handlers.New(deps).Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openSessions builds the configured session store
func openSessions(ctx context.Context, cfg config.SessionConfig, zapLogger *zap.Logger) (session.Store, func(), error) {
	if cfg.Backend != "redis" {
		return session.NewMemoryStore(cfg.GetTTL()), func() {}, nil
	}

	client := session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	rs := session.NewRedisStore(client, cfg.GetTTL())
	if err := rs.Ping(ctx); err != nil {
		rs.Close()
		return nil, nil, err
	}
	zapLogger.Info("Sessions stored in Redis", zap.String("addr", cfg.RedisAddr))
	return rs, func() { rs.Close() }, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
