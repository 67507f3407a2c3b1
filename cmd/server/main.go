package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authgate/internal/api"
	"authgate/internal/app/ratelimit"
	"authgate/internal/app/service"
	"authgate/internal/common/security"
	"authgate/internal/domain/repository"
	"authgate/internal/platform/config"
	"authgate/internal/platform/database"
	"authgate/internal/platform/redisconn"
)

func main() {
	cfg := config.Load()
	log.Println("Configuration loaded.")

	db := database.Connect(cfg)
	defer db.Close()

	limiterCfg := ratelimit.Config{MaxRequests: cfg.MaxRequests, Window: cfg.Window}
	var limiter ratelimit.Store
	switch cfg.RateLimitBackend {
	case config.RateLimitBackendRedis:
		rdb := redisconn.Connect(cfg)
		defer rdb.Close()
		limiter = ratelimit.NewRedisStore(rdb, limiterCfg)
	default:
		limiter = ratelimit.NewMemoryStore(limiterCfg, cfg.RateLimitMaxClients)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("Could not create upload directory: %v", err)
	}

	tokens := security.NewTokens(cfg.Algorithm, cfg.SecretKey, cfg.TokenTTL, cfg.TokenLeeway)
	hasher := security.NewPasswordHasher(cfg.BcryptCost)

	userRepo := repository.NewPgUserRepository(db)
	itemRepo := repository.NewPgItemRepository(db)
	fileRepo := repository.NewPgFileRepository(db)

	authService := service.NewAuthService(userRepo, hasher, tokens)
	itemService := service.NewItemService(itemRepo)
	fileService := service.NewFileService(fileRepo, cfg.UploadDir)

	router := api.NewRouter(authService, itemService, fileService, limiter, cfg.UploadDir)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", cfg.APIPort, err)
		}
	}()

	<-stop

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully.")
}
