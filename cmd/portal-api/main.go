package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/stainespoir/parent-portal-api/api/swagger"
	"github.com/stainespoir/parent-portal-api/internal/handler"
	"github.com/stainespoir/parent-portal-api/internal/middleware"
	"github.com/stainespoir/parent-portal-api/internal/models"
	"github.com/stainespoir/parent-portal-api/internal/repository"
	"github.com/stainespoir/parent-portal-api/internal/service"
	"github.com/stainespoir/parent-portal-api/pkg/cache"
	"github.com/stainespoir/parent-portal-api/pkg/config"
	"github.com/stainespoir/parent-portal-api/pkg/database"
	"github.com/stainespoir/parent-portal-api/pkg/jobs"
	"github.com/stainespoir/parent-portal-api/pkg/logger"
	corsmiddleware "github.com/stainespoir/parent-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/stainespoir/parent-portal-api/pkg/middleware/requestid"
	"github.com/stainespoir/parent-portal-api/pkg/storage"
)

// @title Parent Portal API
// @version 1.0.0
// @description Association parent portal: attendance calendar, outing consent and invitations
// @BasePath /api/v1
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

	loc, err := cfg.Location()
	if err != nil {
		logr.Sugar().Fatalw("invalid portal timezone", "timezone", cfg.Portal.Timezone, "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	childRepo := repository.NewChildRepository(db)
	outingRepo := repository.NewOutingRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Outings.SignedCountsCacheTTL, logr, redisClient != nil)
	calendarSvc := service.NewCalendarService(loc)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, childRepo, calendarSvc, logr)
	consentSvc := service.NewConsentService(regRepo, cacheSvc, metrics, validate, logr)
	invitationSvc := service.NewInvitationService(regRepo, outingRepo, childRepo, messageRepo, loc, logr)
	outingSvc := service.NewOutingService(outingRepo, regRepo, cacheSvc, cfg.Outings.SignedCountsCacheTTL, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, childRepo, validate, logr)
	accountSvc := service.NewAccountService(childRepo, regRepo, attendanceSvc, outingSvc, messageSvc, cfg.Portal.AssociationName, logr)
	parentSvc := service.NewParentService(userRepo, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "parent-portal-api",
		Audience:           []string{"parent-portal"},
	})

	var attestationSvc *service.AttestationService
	if cfg.Attestations.Enabled {
		store, err := storage.NewLocalStorage(cfg.Attestations.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare attestation storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Attestations.SignedURLSecret, cfg.Attestations.SignedURLTTL)
		attestationSvc = service.NewAttestationService(regRepo, store, signer, metrics, cfg.Portal.AssociationName, jobs.QueueConfig{
			Workers:    cfg.Attestations.WorkerConcurrency,
			MaxRetries: cfg.Attestations.WorkerRetries,
			Logger:     logr,
		}, logr)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	accountHandler := handler.NewAccountHandler(accountSvc)
	consentHandler := handler.NewConsentHandler(consentSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	outingHandler := handler.NewOutingHandler(outingSvc)
	invitationHandler := handler.NewInvitationHandler(invitationSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)
	parentHandler := handler.NewParentAdminHandler(parentSvc)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

	account := api.Group("/account", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleParent))
	account.GET("", accountHandler.Dashboard)
	account.GET("/presences/month", accountHandler.PresenceMonth)
	account.GET("/outings", accountHandler.Outings)
	account.POST("/registrations/:id/sign", consentHandler.Sign)
	account.POST("/registrations/:id/decline", consentHandler.Decline)
	account.GET("/messages", messageHandler.List)
	account.POST("/messages", messageHandler.Send)

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/presences", attendanceHandler.Roster)
	admin.POST("/presences", attendanceHandler.SaveRoster)
	admin.GET("/outings", outingHandler.List)
	admin.POST("/outings", outingHandler.Create)
	admin.GET("/outings/:id", outingHandler.Get)
	admin.PUT("/outings/:id", outingHandler.Update)
	admin.POST("/outings/:id/invite", invitationHandler.Invite)
	admin.POST("/outings/:id/remind", invitationHandler.Remind)
	admin.PUT("/registrations/:id/review", consentHandler.Review)
	admin.GET("/parents/pending", parentHandler.ListPending)
	admin.POST("/parents/pending/:id/approve", parentHandler.Approve)
	admin.POST("/parents/pending/:id/reject", parentHandler.Reject)
	admin.PUT("/messages/:id/read", messageHandler.MarkRead)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if attestationSvc != nil {
		attestationSvc.Start(ctx)
		defer attestationSvc.Stop()

		attestationHandler := handler.NewAttestationHandler(attestationSvc)
		account.GET("/registrations/:id/attestation", attestationHandler.Download)
		admin.POST("/outings/:id/attestations/export", attestationHandler.StartExport)
		admin.GET("/exports/:id", attestationHandler.ExportState)
		api.GET("/exports/download", attestationHandler.DownloadExport)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down", zap.String("reason", "signal"))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
