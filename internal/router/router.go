package router

import (
	"net/http"

	"github.com/commonapply/verification-backend/config"
	"github.com/commonapply/verification-backend/internal/app/controller"
	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	verificationController *controller.VerificationController
	notificationController *controller.NotificationController
	uploadController       *controller.UploadController
	authMiddleware         *middleware.AuthMiddleware
	config                 *config.Config
}

func NewRouter(
	verificationController *controller.VerificationController,
	notificationController *controller.NotificationController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		verificationController: verificationController,
		notificationController: notificationController,
		uploadController:       uploadController,
		authMiddleware:         authMiddleware,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)
	controller.RegisterValidators()

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "CommonApply verification API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		verifications := v1.Group("/verifications")
		{
			verifications.POST("", r.verificationController.Submit)
			verifications.GET("/university/:university_id/status", r.verificationController.GetUniversityStatus)
		}

		admin := v1.Group("/admin/verifications")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole(model.RoleSystemAdmin, model.RoleAdmin))
		{
			admin.GET("", r.verificationController.List)
			admin.GET("/report", r.verificationController.Report)
			admin.GET("/report/latest", r.verificationController.LatestReport)
			admin.GET("/report.xlsx", r.verificationController.ExportReport)
			admin.GET("/:id", r.verificationController.Get)
			admin.POST("/:id/review", r.verificationController.StartReview)
			admin.POST("/:id/decision", r.verificationController.Decide)
			admin.PUT("/:id/documents/:document_id", r.verificationController.ReviewDocument)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(r.authMiddleware.Authenticate())
		{
			notifications.GET("", r.notificationController.GetNotifications)
			notifications.GET("/unread-count", r.notificationController.GetUnreadCount)
			notifications.PUT("/:id/read", r.notificationController.MarkAsRead)
			notifications.GET("/ws", r.notificationController.WebSocketHandler)
		}

		upload := v1.Group("/upload")
		{
			upload.POST("/presigned-url", r.uploadController.GeneratePresignedURL)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
