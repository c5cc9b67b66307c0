// Package main is the entry point of the read-tracking server.
//
// main wires the layers together; nothing here is global:
//  1. Load config
//  2. Open the storage backend
//  3. Build repositories, services, handlers
//  4. Register routes, wrap with CORS
//  5. Serve until SIGINT/SIGTERM, then shut down gracefully
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

	"github.com/rs/cors"

	"github.com/campusdesk/portal/config"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] read-state server starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d, storage=%s)", cfg.Server.Port, cfg.Storage.Driver)

	repos, err := initRepositories(cfg.Storage)
	if err != nil {
		log.Fatalf("[main] failed to open storage: %v", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			log.Printf("[main] storage close error: %v", err)
		}
	}()

	svcs := initServices(repos, cfg)
	defer svcs.Shutdown()

	h := initHandlers(svcs)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           corsHandler.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[main] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
	}
	log.Println("[main] server stopped")
}
