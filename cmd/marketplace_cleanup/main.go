package main

import (
	"context"
	"log"
	"time"

	"freightmarket/internal/app"
	"freightmarket/internal/config"
	"freightmarket/internal/database"
)

// One pass of marketplace housekeeping, meant for cron: move nested
// required_documents to the top level, then expire listings and offers.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBDebug)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db, app.Models()...); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	extra, closeEvents, err := app.OpenEvents(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer closeEvents()

	services, err := app.NewServices(cfg, app.Deps{DB: db, Extra: extra})
	if err != nil {
		log.Fatalf("services: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	now := time.Now().UTC()

	normalized, err := services.Listings.NormalizeMetadata(ctx)
	if err != nil {
		log.Fatalf("normalize listings failed: %v", err)
	}

	listings, err := services.Listings.ExpireListings(ctx, now)
	if err != nil {
		log.Fatalf("expire listings failed: %v", err)
	}

	offers, err := services.Offers.ExpireOffers(ctx, now)
	if err != nil {
		log.Fatalf("expire offers failed: %v", err)
	}

	log.Printf("marketplace cleanup completed: normalized_listings=%d expired_listings=%d expired_offers=%d", normalized, listings, offers)
}
