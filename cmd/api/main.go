package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"bmasia/internal/config"
	"bmasia/internal/database"
	"bmasia/internal/events"
	"bmasia/internal/httpapi"
	"bmasia/internal/ratelimit"
	"bmasia/internal/services"
	"bmasia/internal/util"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
)

func main() {
	// Initialize structured logging
	log.SetPrefix("[API] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate critical configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Starting %s v%s", cfg.App.Name, cfg.App.Version)
	log.Printf("Environment: debug=%v, port=%s, host=%s", cfg.App.Debug, cfg.App.Port, cfg.App.Host)

	// Initialize database
	log.Println("Initializing database connection...")
	if err := database.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	db := database.GetDB()
	defer func() {
		log.Println("Closing database connections...")
		if closeErr := database.Close(db); closeErr != nil {
			log.Printf("Error closing database: %v", closeErr)
		}
	}()
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Rate limiter shared by the inquiry and quotation forms
	limiter, closeLimiter := newLimiter(ctx, cfg)
	defer closeLimiter()

	// Create service instances
	log.Println("Initializing services...")
	repo := database.NewRepository(db)

	emailService := services.NewEmailService(&cfg.Email)
	if !emailService.IsEnabled() {
		log.Println("[EMAIL] Email disabled, staff alerts will only be logged")
	}
	notifiers := []services.Notifier{emailService}
	if cfg.Events.Enabled {
		publisher := events.NewKafkaPublisher(&cfg.Events)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Printf("Error closing event publisher: %v", err)
			}
		}()
		notifiers = append(notifiers, publisher)
	}

	tokens := util.NewTokenIssuer(cfg.Auth.SecretKey, time.Duration(cfg.Auth.TokenExpiryMinutes)*time.Minute)

	handler := httpapi.NewHandler(cfg, httpapi.Services{
		Intake: services.NewIntakeService(repo, limiter, services.IntakeOptions{
			EnforceSolutionEnum: cfg.Intake.EnforceSolutionEnum,
		}, notifiers...),
		Chat:   services.NewChatService(services.NewWebhookClient(&cfg.Webhook)),
		Auth:   services.NewAuthService(repo, tokens),
		Leads:  services.NewLeadReviewService(repo),
		Health: services.NewHealthService(sqlDB, cfg.App.Name),
	})

	// Create HTTP server with timeouts
	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     log.New(os.Stderr, "[HTTP] ", log.LstdFlags),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server failed to start: %v", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v. Starting graceful shutdown...", sig)
	}

	// Stop background work, then drain in-flight requests
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during graceful shutdown: %v", err)
		if errors.Is(err, context.DeadlineExceeded) {
			log.Println("Shutdown timeout exceeded, forcing close...")
			httpServer.Close()
		}
	}

	log.Println("Server shutdown complete")
}

// newLimiter builds the configured rate limiter backend. The in-memory
// backend gets a periodic sweep that runs until ctx is cancelled.
func newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func()) {
	rl := cfg.RateLimit

	if rl.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Printf("[RATELIMIT] Warning: redis at %s not reachable yet: %v", cfg.Redis.Addr, err)
		}
		log.Printf("[RATELIMIT] Using redis backend at %s (window=%s, max=%d)", cfg.Redis.Addr, rl.Window, rl.MaxPerWindow)
		return ratelimit.NewRedis(client, rl.Window, rl.MaxPerWindow), func() {
			if err := client.Close(); err != nil {
				log.Printf("Error closing redis client: %v", err)
			}
		}
	}

	mem := ratelimit.NewMemory(rl.Window, rl.MaxPerWindow)
	go mem.Run(ctx, rl.SweepInterval)
	log.Printf("[RATELIMIT] Using in-memory backend (window=%s, max=%d, sweep=%s)", rl.Window, rl.MaxPerWindow, rl.SweepInterval)
	return mem, func() {}
}

// validateConfig validates critical configuration values
func validateConfig(cfg *config.Config) error {
	if cfg.Auth.SecretKey == "" || cfg.Auth.SecretKey == "your-secret-key-change-in-production" {
		return fmt.Errorf("SECRET_KEY must be set and changed from default value")
	}
	if len(cfg.Auth.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters for security")
	}
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.RateLimit.SweepInterval <= 0 {
		return fmt.Errorf("RATE_LIMIT_SWEEP_INTERVAL must be greater than 0")
	}
	return nil
}
