package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"freightmarket/internal/app"
	"freightmarket/internal/config"
	"freightmarket/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBDebug)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db, app.Models()...); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	store, closeStore, err := app.OpenStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeStore(context.Background())

	extra, closeEvents, err := app.OpenEvents(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer closeEvents()

	services, err := app.NewServices(cfg, app.Deps{DB: db, Storage: store, Extra: extra})
	if err != nil {
		log.Fatalf("services: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.NewRouter(cfg, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("http_server_listening addr=%s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http_server_shutdown_failed error=%v", err)
	}
}
