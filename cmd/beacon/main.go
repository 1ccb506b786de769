package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/beacon-bot/beacon/internal/app"
	"github.com/beacon-bot/beacon/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	built, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}
	defer built.Cleanup()

	if len(cfg.ApprovedOperators) == 0 {
		log.Printf("APPROVED_OPERATORS is empty; all operators are permitted")
	}
	if cfg.BroadcastChannel == "" {
		log.Printf("BROADCAST_CHANNEL is not set; publishing is disabled until configured")
	}

	srv := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: built.API.Router(),
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("beacon listening on %s (channel %q)", cfg.BindAddr, cfg.BroadcastChannel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-done
	log.Printf("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
