package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic/internal/api"
	"clinic/internal/app/clinic"
	"clinic/internal/app/worker"
	"clinic/internal/domain/repository"
	"clinic/internal/platform/config"
	"clinic/internal/platform/kv"

	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize Token Storage
	tokens, rdb, err := openTokenRepository(cfg)
	if err != nil {
		log.Fatalf("Could not open token store %q: %v", cfg.TokenStore, err)
	}
	defer kv.Close(rdb)
	fmt.Printf("Token store %q ready.\n", cfg.TokenStore)

	// 3. Initialize Client Registry
	registry := clinic.NewRegistry(clinic.Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.APITimeout,
		Tokens:     tokens,
		StaleAfter: cfg.CacheStaleAfter,
	})

	// 4. Start Registry Sweeper (as a goroutine)
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()
	if cfg.RegistryIdle > 0 {
		go worker.NewRegistrySweeper(registry, cfg.RegistryIdle).Start(sweeperCtx)
	}

	// 5. Initialize Router & HTTP Server
	router := api.NewRouter(registry, api.RouterConfig{CookieSecure: cfg.CookieSecure})

	server := &http.Server{
		Addr:         ":" + cfg.WebPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.APITimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s (API %s)", cfg.WebPort, cfg.APIBaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", cfg.WebPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop

	log.Println("Shutting down server...")
	sweeperCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully.")
}

// openTokenRepository picks the backing store for session slots. The
// Redis client is returned so main can close it; it is nil otherwise.
func openTokenRepository(cfg *config.Config) (repository.TokenRepository, *redis.Client, error) {
	switch cfg.TokenStore {
	case config.TokenStoreMemory:
		return repository.NewMemoryTokenRepository(), nil, nil
	case config.TokenStoreRedis:
		rdb, err := kv.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisTokenRepository(rdb, "clinic:", cfg.TokenTTL), rdb, nil
	case config.TokenStoreFile:
		repo, err := repository.NewFileTokenRepository(cfg.TokenFile, cfg.TokenTTL)
		return repo, nil, err
	}
	return nil, nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
}
