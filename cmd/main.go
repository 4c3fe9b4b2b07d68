package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mwangik8/sugar-board-backend/config"
	"github.com/mwangik8/sugar-board-backend/database"
	"github.com/mwangik8/sugar-board-backend/internal/action"
	"github.com/mwangik8/sugar-board-backend/internal/application"
	"github.com/mwangik8/sugar-board-backend/internal/auditlog"
	"github.com/mwangik8/sugar-board-backend/internal/feed"
	"github.com/mwangik8/sugar-board-backend/routes"
	"github.com/mwangik8/sugar-board-backend/utils"
)

// @title Sugar Board API
// @version 1.0
// @description Backing service for the sugar industry regulatory portal: application workflow, board actions, notification feed and reporting.
// @BasePath /api
func main() {
	cfg := config.Load()
	db := database.Connect(cfg)

	if err := utils.InitRedis(cfg); err != nil {
		log.Fatalf("❌ Redis init failed: %v", err)
	}
	utils.InitializeKafka(cfg)

	log.Println("🔄 Running database migrations...")
	if err := db.AutoMigrate(
		&auditlog.AuditLog{},
		&application.Application{},
		&application.Director{},
		&action.Action{},
		&action.DecisionRecord{},
		&feed.Item{},
		&feed.Notification{},
	); err != nil {
		panic(fmt.Sprintf("❌ DB AutoMigrate failed: %v", err))
	}
	log.Println("✅ Database migrations completed")

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://portal.sugarboard.go.ke"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	feedSvc := routes.Setup(r, cfg)

	// Drain upstream market alerts into the feed
	feed.StartAlertConsumer(context.Background(), utils.NewAlertReader(cfg), feedSvc)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Sugar board backend listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
