package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"library-lite/api"
	"library-lite/internal/shared/middleware"
	"library-lite/pkg/container"
	"library-lite/pkg/logger"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.App.AllowedOrigins),
		middleware.ClientIPMiddleware(),
	)
	if c.RateLimiter != nil {
		router.Use(middleware.RateLimitMiddleware(c.RateLimiter))
	}

	// API docs
	router.GET("/openapi.yaml", func(ctx *gin.Context) {
		ctx.Data(http.StatusOK, "application/yaml", api.OpenAPISpec)
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/openapi.yaml")))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		authRequired := middleware.AuthMiddleware(c.UserService)

		setupAuthRoutes(v1, c, authRequired)
		setupUserRoutes(v1, c, authRequired)
		setupBookRoutes(v1, c, authRequired)
		setupAuthorRoutes(v1, c, authRequired)
		setupLoanRoutes(v1, c, authRequired)
		setupReservationRoutes(v1, c, authRequired)
		setupPaymentRoutes(v1, c, authRequired)
		setupMemberRoutes(v1, c, authRequired)
		setupAdminRoutes(v1, c, authRequired)
		setupDashboardRoutes(v1, c, authRequired)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", c.UserHandler.Signup)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/logout", authRequired, c.UserHandler.Logout)
		auth.GET("/user", authRequired, c.UserHandler.CurrentUser)
	}
}

func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	users := v1.Group("/users", authRequired)
	{
		users.GET("/:id", c.UserHandler.GetProfile)
		users.PUT("/:id", c.UserHandler.UpdateProfile)
	}
}

// ========================================
// CATALOG ROUTES
// ========================================
// Đọc catalog là public, ghi cần staff
func setupBookRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	books := v1.Group("/books")
	{
		books.GET("", c.BookHandler.ListBooks)
		books.GET("/:id", c.BookHandler.GetBook)

		books.POST("", authRequired, middleware.StaffOnly(), c.BookHandler.CreateBook)
		books.PUT("/:id", authRequired, middleware.StaffOnly(), c.BookHandler.UpdateBook)
		books.POST("/:id/cover", authRequired, middleware.StaffOnly(), c.BookHandler.UploadCover)
		books.DELETE("/:id", authRequired, middleware.AdminOnly(), c.BookHandler.DeleteBook)
	}
}

func setupAuthorRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	authors := v1.Group("/authors")
	{
		authors.GET("", c.BookHandler.ListAuthors)
		authors.GET("/:id", c.BookHandler.GetAuthor)
		authors.POST("", authRequired, middleware.StaffOnly(), c.BookHandler.CreateAuthor)
	}
}

// ========================================
// CIRCULATION ROUTES
// ========================================
// Actor rules (member chỉ thao tác cho chính mình) nằm trong service
func setupLoanRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	loans := v1.Group("/loans", authRequired)
	{
		loans.POST("/borrow", c.LoanHandler.Borrow)
		loans.POST("/return", c.LoanHandler.Return)
		loans.POST("/reserve", c.ReservationHandler.Reserve)

		loans.GET("", middleware.StaffOnly(), c.LoanHandler.ListLoans)
		loans.GET("/overdue", middleware.StaffOnly(), c.LoanHandler.ListOverdue)
		loans.GET("/user/:userId", c.LoanHandler.ListUserLoans)
		loans.GET("/:id", c.LoanHandler.GetLoan)
	}
}

func setupReservationRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	reservations := v1.Group("/reservations", authRequired)
	{
		reservations.GET("/user/:userId", c.ReservationHandler.ListUserReservations)
		reservations.DELETE("/:id", c.ReservationHandler.Cancel)
	}
}

func setupPaymentRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	payments := v1.Group("/payments", authRequired)
	{
		payments.POST("/payfine", c.PaymentHandler.PayFine)
		payments.GET("", middleware.StaffOnly(), c.PaymentHandler.ListPayments)
		payments.GET("/user/:userId", c.PaymentHandler.UserHistory)
		payments.GET("/:id", c.PaymentHandler.GetPayment)
	}
}

func setupMemberRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	members := v1.Group("/members", authRequired)
	{
		members.GET("", middleware.StaffOnly(), c.MemberHandler.ListMembers)
		members.GET("/:id", c.MemberHandler.GetMember)
		members.POST("", middleware.StaffOnly(), c.MemberHandler.CreateMember)
		members.PUT("/:id", middleware.StaffOnly(), c.MemberHandler.UpdateMember)
		members.DELETE("/:id", middleware.AdminOnly(), c.MemberHandler.DeleteMember)
	}
}

// ========================================
// ADMIN & DASHBOARD ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	admin := v1.Group("/admin", authRequired, middleware.AdminOnly())
	{
		admin.GET("/reports", c.ReportHandler.Overview)
		admin.GET("/users/stats", c.ReportHandler.UserStats)
		admin.GET("/books/stats", c.ReportHandler.BookStats)
		admin.GET("/loans/stats", c.ReportHandler.LoanStats)
		admin.GET("/loans/export", c.ReportHandler.ExportLoans)
		admin.GET("/activity-logs", c.ActivityHandler.ListActivityLogs)
	}
}

func setupDashboardRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	v1.GET("/dashboard/user/:userId", authRequired, c.ReportHandler.UserDashboard)
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		// Check database
		dbStatus := dependencyStatus("database", appCtx.DB.Ping(ctx))
		if dbStatus != "ok" {
			health["status"] = "degraded"
		}

		// Check redis
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else if redisStatus = dependencyStatus("redis", appCtx.Cache.Ping(ctx)); redisStatus != "ok" {
			health["status"] = "degraded"
		}

		storageStatus := "ok"
		if appCtx.Storage == nil {
			storageStatus = "disabled"
		}

		services := gin.H{
			"database":      dbStatus,
			"redis":         redisStatus,
			"storage":       storageStatus,
			"auth_provider": appCtx.Auth.Name(),
		}
		if stats, err := appCtx.DB.Stats(); err == nil {
			services["pool"] = stats
		}
		health["services"] = services

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}

// dependencyStatus không trả lỗi gốc ra endpoint public, chỉ log
func dependencyStatus(component string, err error) string {
	if err == nil {
		return "ok"
	}
	logger.Error("Health check failed: "+component, err)
	return "unavailable"
}
