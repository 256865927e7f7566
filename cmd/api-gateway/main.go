package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-complaints-api/api/swagger"
	"github.com/noah-isme/campus-complaints-api/internal/handler"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
	"github.com/noah-isme/campus-complaints-api/internal/service"
	"github.com/noah-isme/campus-complaints-api/pkg/cache"
	"github.com/noah-isme/campus-complaints-api/pkg/config"
	"github.com/noah-isme/campus-complaints-api/pkg/database"
	"github.com/noah-isme/campus-complaints-api/pkg/logger"
)

// @title Campus Complaints API
// @version 1.0.0
// @description Complaint filing, category triage, audited identity tracing and flag-based suspension
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
		logr.Info("database schema ready")
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, otp attempt limiter disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	attemptRepo := repository.NewAttemptRepository(redisClient, cfg.Auth.OTPTTL)
	defer attemptRepo.Close() //nolint:errcheck

	policy := service.NewFlagPolicy(cfg.Flags.SuspendThreshold)
	authSvc := service.NewAuthService(userRepo, studentRepo, attemptRepo, validate, logr, service.AuthConfig{
		TokenSecret:    cfg.JWT.Secret,
		TokenExpiry:    cfg.JWT.Expiration,
		Issuer:         cfg.JWT.Issuer,
		OTPTTL:         cfg.Auth.OTPTTL,
		MaxOTPAttempts: cfg.Auth.OTPMaxAttempts,
		BcryptCost:     cfg.Auth.BcryptCost,
	})
	complaintSvc := service.NewComplaintService(complaintRepo, policy, metricsSvc, validate, logr)
	traceSvc := service.NewTraceService(complaintRepo, userRepo, auditRepo, metricsSvc, logr)
	userSvc := service.NewUserService(userRepo, auditRepo, policy, metricsSvc, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)

	r := newRouter(cfg, logr, routerDeps{
		auth:    authSvc,
		metrics: metricsSvc,
		handlers: handlers{
			auth:      handler.NewAuthHandler(authSvc),
			complaint: handler.NewComplaintHandler(complaintSvc),
			admin:     handler.NewAdminHandler(complaintSvc, traceSvc),
			central:   handler.NewCentralHandler(complaintSvc, userSvc, auditSvc),
			metrics:   handler.NewMetricsHandler(metricsSvc, db),
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
