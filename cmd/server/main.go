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

	"github.com/bolsamaster/bolsamaster-backend/internal/api"
	"github.com/bolsamaster/bolsamaster-backend/internal/app"
	"github.com/bolsamaster/bolsamaster-backend/internal/config"
	"github.com/bolsamaster/bolsamaster-backend/internal/scheduler"
	"github.com/bolsamaster/bolsamaster-backend/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("bolsamaster %s", version.Version)

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	a, err := app.New(startCtx, cfg)
	if err != nil {
		cancelStart()
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	// Restore entries other devices pushed while this one was offline
	if a.Sync != nil {
		if n, err := a.Sync.Pull(startCtx); err != nil {
			log.Printf("Mirror pull failed: %v", err)
		} else if n > 0 {
			log.Printf("Restored %d entries from mirror", n)
		}
	}

	// Build the stored view once so the first request is served from it
	if _, err := a.Portfolio.GetPortfolio(startCtx); err != nil {
		log.Printf("Failed to build portfolio: %v", err)
	}
	cancelStart()

	jobs := []scheduler.Job{scheduler.QuoteRefreshJob(cfg.Quote.RefreshSchedule, a.Portfolio)}
	if a.Sync != nil {
		jobs = append(jobs, scheduler.MirrorPushJob(cfg.Mirror.SyncSchedule, a.Sync))
	}
	sched, err := scheduler.New(jobs...)
	if err != nil {
		log.Fatalf("Failed to configure scheduler: %v", err)
	}
	sched.Start()
	log.Printf("Scheduled jobs: %v", sched.Jobs())

	// Create router
	router := api.NewRouter(a.System, a.Transactions, a.Portfolio, a.Settings, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(ctx); err != nil {
		log.Printf("Scheduler did not stop cleanly: %v", err)
	}

	// Closing the hub ends open websocket streams
	a.Hub.Close()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if a.Sync != nil {
		if n, err := a.Sync.Push(ctx); err != nil {
			log.Printf("Final mirror push failed: %v", err)
		} else if n > 0 {
			log.Printf("Pushed %d entries to mirror", n)
		}
	}

	log.Println("Server exited")
}
