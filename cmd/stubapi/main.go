// Command stubapi serves an in-memory clinic REST API for local
// development and demos. Nothing it stores survives a restart.
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

	"clinic/internal/common/security"
	"clinic/internal/platform/config"
	"clinic/internal/stubapi"
)

func main() {
	cfg := config.Load()

	store := stubapi.NewStore()
	if cfg.StubSeed {
		if err := stubapi.Seed(store); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		fmt.Printf("Seeded demo accounts %q and %q (password %q).\n",
			stubapi.DemoReceptionist, stubapi.DemoDoctor, stubapi.DemoPassword)
	}

	srv := stubapi.NewServer(store, security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp))
	server := &http.Server{
		Addr:         ":" + cfg.StubAPIPort,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Stub API listening on port %s", cfg.StubAPIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", cfg.StubAPIPort, err)
		}
	}()

	<-stop
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Stub API shutdown failed: %v", err)
	}
	log.Println("Stub API stopped.")
}
