package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mwangik8/sugar-board-backend/config"
)

// DB is the shared gorm handle used by route wiring.
var DB *gorm.DB

// Connect opens the Postgres connection and stores the shared handle.
func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to connect to database: %v", err))
	}

	log.Println("✅ Database connected")
	DB = db
	return db
}
