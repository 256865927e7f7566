package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-complaints-api/internal/handler"
	"github.com/noah-isme/campus-complaints-api/internal/middleware"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/service"
	"github.com/noah-isme/campus-complaints-api/pkg/config"
	"github.com/noah-isme/campus-complaints-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-complaints-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-complaints-api/pkg/middleware/requestid"
)

type handlers struct {
	auth      *handler.AuthHandler
	complaint *handler.ComplaintHandler
	admin     *handler.AdminHandler
	central   *handler.CentralHandler
	metrics   *handler.MetricsHandler
}

type routerDeps struct {
	auth     middleware.Authenticator
	metrics  *service.MetricsService
	handlers handlers
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	h := deps.handlers
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.metrics.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authenticated := middleware.JWT(deps.auth)

	auth := api.Group("/auth")
	auth.POST("/register", h.auth.Register)
	auth.POST("/verify-otp", h.auth.VerifyOTP)
	auth.POST("/resend-otp", h.auth.ResendOTP)
	auth.POST("/set-password", h.auth.SetPassword)
	auth.POST("/login", h.auth.Login)
	auth.GET("/me", authenticated, h.auth.Me)

	complaints := api.Group("/complaints", authenticated, middleware.RequireRoles(models.RoleStudent))
	complaints.POST("", h.complaint.Create)
	complaints.GET("/mine", h.complaint.Mine)

	admin := api.Group("/admin/complaints", authenticated)
	admin.GET("", middleware.RequireRoles(models.RoleSchoolAdmin), h.admin.List)
	admin.POST("/:id/resolve", middleware.RequireRoles(models.RoleSchoolAdmin), h.admin.Resolve)
	admin.POST("/:id/mark-false", middleware.RequireRoles(models.RoleSchoolAdmin), h.admin.MarkFalse)
	admin.POST("/:id/trace", middleware.RequireRoles(models.RoleSchoolAdmin, models.RoleCentralAdmin), h.admin.Trace)

	central := api.Group("/central", authenticated, middleware.RequireRoles(models.RoleCentralAdmin))
	central.GET("/complaints", h.central.Complaints)
	central.GET("/users", h.central.Users)
	central.POST("/users/:id/flag", h.central.Flag)
	central.POST("/users/:id/unflag", h.central.Unflag)
	central.GET("/audit-logs", h.central.AuditLogs)
	central.GET("/audit-logs/export", h.central.ExportAuditLogs)

	return r
}
