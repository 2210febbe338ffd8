package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"spa_backend/internal/config"
	"spa_backend/internal/database"
	"spa_backend/internal/middleware"
	"spa_backend/internal/models"
	"spa_backend/internal/notify"
	"spa_backend/internal/repositories"
	"spa_backend/internal/router"
	"spa_backend/internal/telemetry"
	"spa_backend/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Logger
	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	shutdownTracing := telemetry.Setup(cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		utils.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()
	if err := database.ApplySchema(ctx, db, cfg.DBSchemaPath); err != nil {
		utils.LogError(err, "Failed to apply database schema")
		os.Exit(1)
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), middlewareStack(cfg)...)

	if err := router.Setup(engine, db, cfg); err != nil {
		utils.LogError(err, "Failed to set up routes")
		os.Exit(1)
	}

	// Notification outbox worker
	outbox := repositories.NewNotificationRepository(db)
	worker := notify.New(outbox, notify.Config{
		BatchSize:   cfg.Notify.BatchSize,
		MaxAttempts: cfg.Notify.MaxAttempts,
		Email:       notify.NewProvider(cfg.Notify.EmailProvider, models.ChannelEmail, cfg.Mail, cfg.Notify.WebhookURL, cfg.Notify.WebhookToken),
		SMS:         notify.NewProvider(cfg.Notify.SMSProvider, models.ChannelSMS, cfg.Mail, cfg.Notify.WebhookURL, cfg.Notify.WebhookToken),
	})
	go notify.Start(ctx, cfg.Notify.Interval, worker)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(engine, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "auto_assign": cfg.AutoAssignStrategy})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		utils.LogError(err, "Tracer shutdown failed")
	}
}

func middlewareStack(cfg *config.Config) []gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	corsConfig.AllowCredentials = true

	return []gin.HandlerFunc{
		middleware.RequestID(),
		utils.GinLogger(),
		cors.New(corsConfig),
	}
}
