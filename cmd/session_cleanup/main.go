package main

import (
	"context"
	"log"
	"time"

	"authgate/internal/config"
	"authgate/internal/database"
	"authgate/internal/repository"
)

// Deactivated sessions keep their ledgers this long before the sweeper
// reclaims them.
const inactiveRetention = 30 * 24 * time.Hour

// One-shot sweeper for dead auth state, meant to run from cron. The
// rotation engine never deletes rows itself, so sessions past their expiry
// and the ledgers of long-inactive sessions pile up until this runs.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	repo := repository.NewSessionRepository(db)
	sessions, access, refresh, err := repo.PurgeDead(context.Background(), time.Now().UTC(), inactiveRetention)
	if err != nil {
		log.Fatalf("session cleanup failed: %v", err)
	}

	log.Printf("session cleanup completed: sessions=%d access_tokens=%d refresh_tokens=%d",
		sessions, access, refresh)
}
