package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mwangik8/sugar-board-backend/config"
	"github.com/mwangik8/sugar-board-backend/database"
	"github.com/mwangik8/sugar-board-backend/internal/action"
	"github.com/mwangik8/sugar-board-backend/internal/application"
	"github.com/mwangik8/sugar-board-backend/internal/auditlog"
	"github.com/mwangik8/sugar-board-backend/internal/feed"
	"github.com/mwangik8/sugar-board-backend/internal/reports"
	"github.com/mwangik8/sugar-board-backend/middleware"

	_ "github.com/mwangik8/sugar-board-backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Setup wires every service and mounts the API.
func Setup(r *gin.Engine, cfg *config.Config) *feed.Service {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.Use(middleware.RateLimiter())
	api.Use(middleware.AuditMiddleware())

	// ========== Audit Trail ==========
	auditRepo := auditlog.NewRepository(database.DB)
	auditSvc := auditlog.NewService(auditRepo)
	auditHandler := auditlog.NewHandler(auditSvc)

	// ========== Board Actions ==========
	actionRepo := action.NewRepository(database.DB)

	// ========== Notification Feed ==========
	feedRepo := feed.NewRepository(database.DB)
	feedSvc := feed.NewService(feedRepo, auditRepo, auditSvc, actionRepo, feed.NewRedisBroadcaster())
	feedHandler := feed.NewHandler(feedSvc)

	actionSvc := action.NewService(actionRepo, auditSvc, feedSvc)
	actionHandler := action.NewHandler(actionSvc)

	// ========== Application Workflow ==========
	appRepo := application.NewRepository(database.DB)
	locker := application.NewRedisLocker(time.Duration(cfg.ReviewLockTTLMinutes) * time.Minute)
	appSvc := application.NewService(appRepo, auditSvc, feedSvc, locker)
	appHandler := application.NewHandler(appSvc)

	// ========== Reports ==========
	reportsRepo := reports.NewRepository(database.DB)
	reportsSvc := reports.NewService(reportsRepo, reports.NewExporter())
	reportsHandler := reports.NewHandler(reportsSvc)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg))

	// ========== Applications ==========
	// Drafting and submission belong to stakeholders; listings are shared.
	applications := protected.Group("/applications")
	{
		applications.GET("", appHandler.List)
		applications.GET("/:id", appHandler.Get)
		applications.GET("/:id/progress", appHandler.Progress)

		write := applications.Group("")
		write.Use(middleware.RBACMiddleware(middleware.RoleStakeholder))
		{
			write.POST("", appHandler.CreateDraft)
			write.PATCH("/:id", appHandler.UpdateDraft)
			write.POST("/:id/submit", appHandler.Submit)
			write.POST("/:id/documents", appHandler.AttachDocument)
			write.POST("/:id/directors", appHandler.AddDirector)
			write.DELETE("/:id/directors/:directorId", appHandler.RemoveDirector)
			write.POST("/:id/directors/:directorId/documents", appHandler.AttachDirectorDocument)
		}
	}

	// ========== Review Pipeline ==========
	review := protected.Group("/review/applications")
	review.Use(middleware.RBACMiddleware(
		middleware.RoleReviewer,
		middleware.RoleFieldCoordinator,
		middleware.RoleBoardAdmin,
		middleware.RoleCEO,
	))
	{
		review.POST("/:id/claim", appHandler.ClaimReview)
		review.POST("/:id/release", appHandler.ReleaseReview)
		review.POST("/:id/advance", appHandler.AdvanceStage)
		review.POST("/:id/decide", appHandler.Decide)
	}

	// ========== Board Actions ==========
	actions := protected.Group("/actions")
	actions.Use(middleware.RequireBoardAccess())
	{
		actions.GET("", actionHandler.List)
		actions.GET("/:id", actionHandler.Get)
		actions.POST("", actionHandler.CreateAction)
		actions.POST("/:id/decisions", actionHandler.RecordDecision)
	}

	// ========== Notification Feed ==========
	feedRoutes := protected.Group("/feed")
	{
		feedRoutes.GET("", feedHandler.List)
		feedRoutes.GET("/stream", feedHandler.Stream)
		feedRoutes.GET("/unread-count", feedHandler.UnreadCount)
		feedRoutes.GET("/notifications", feedHandler.ListNotifications)
		feedRoutes.GET("/notifications/unread-count", feedHandler.UnreadNotificationCount)
		feedRoutes.POST("/notifications/:id/read", feedHandler.MarkNotificationRead)
		feedRoutes.GET("/:id", feedHandler.Get)
		feedRoutes.POST("/:id/read", feedHandler.MarkRead)
		feedRoutes.POST("/read-all", feedHandler.MarkAllRead)

		feedWrite := feedRoutes.Group("")
		feedWrite.Use(middleware.RequireWriteAccess())
		{
			feedWrite.POST("", feedHandler.CreateItem)
			feedWrite.PUT("/:id", feedHandler.Put)
			feedWrite.DELETE("/:id", feedHandler.Delete)
		}
	}

	// ========== Reports (board only) ==========
	reportRoutes := protected.Group("/reports")
	reportRoutes.Use(middleware.RequireBoardAccess())
	{
		reportRoutes.GET("/summary", reportsHandler.Summary)
		reportRoutes.GET("/:register", reportsHandler.ExportRegister)
	}

	// ========== Audit Logs (board admin only) ==========
	auditRoutes := protected.Group("/auditlogs")
	auditRoutes.Use(middleware.RBACMiddleware(middleware.RoleBoardAdmin, middleware.RoleCEO))
	{
		auditRoutes.GET("", auditHandler.GetAuditLogs)
		auditRoutes.GET("/:id", auditHandler.GetAuditLogByID)
	}

	return feedSvc
}
