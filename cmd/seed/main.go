package main

import (
	"log"

	"authgate/internal/config"
	"authgate/internal/database"
	"authgate/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

// Seeds the local user replica for development, standing in for broker
// replication when no users service is running.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Creating users...")
	seed := []struct {
		username, email, name, surname, password string
	}{
		{"admin", "admin@authgate.local", "Admin", "Admin", "admin123"},
		{"mario", "mario@authgate.local", "Mario", "Rossi", "password123"},
		{"luigi", "luigi@authgate.local", "Luigi", "Verdi", "password123"},
	}

	for _, u := range seed {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal(err)
		}
		user := domain.User{
			Username:     u.username,
			Email:        u.email,
			Name:         u.name,
			Surname:      u.surname,
			PasswordHash: string(hash),
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			UpdateAll: true,
		}).Create(&user).Error; err != nil {
			log.Fatalf("seed user %s failed: %v", u.username, err)
		}
		log.Printf("seeded user %s (id=%d)", u.username, user.ID)
	}
}
