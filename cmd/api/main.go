package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Marga-Ghale/ora-tracker/internal/api/handlers"
	"github.com/Marga-Ghale/ora-tracker/internal/api/middleware"
	"github.com/Marga-Ghale/ora-tracker/internal/config"
	"github.com/Marga-Ghale/ora-tracker/internal/cron"
	"github.com/Marga-Ghale/ora-tracker/internal/db"
	"github.com/Marga-Ghale/ora-tracker/internal/email"
	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
	"github.com/Marga-Ghale/ora-tracker/internal/notification"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/seed"
	"github.com/Marga-Ghale/ora-tracker/internal/service"
	"github.com/Marga-Ghale/ora-tracker/internal/socket"
	"github.com/Marga-Ghale/ora-tracker/internal/summary"
)

var log = logutils.Component("main")

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logutils.SetLevel(cfg.LogLevel)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	log.Info("Running database migrations")
	if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.WithError(err).Fatal("Migration failed")
	}

	// ============================================
	// Initialize PostgreSQL (pgxpool + sql.DB)
	// ============================================
	pg, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}
	defer pg.Close()

	repos := repository.NewRepositories(pg.Pool, pg.SQL)

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to Redis, continuing without summary cache")
			redisDB = nil
		} else {
			defer redisDB.Close()
		}
	}

	// ============================================
	// Initialize Email Queue (optional)
	// ============================================
	var mailer service.InviteMailer
	emailStatus := "disabled"
	emailSvc := email.NewService(&email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		UseTLS:   cfg.SMTPUseTLS,
	})
	if emailSvc.Enabled() {
		queue := email.NewEmailQueue(emailSvc, 2)
		defer queue.Stop()
		mailer = queue
		emailStatus = "configured"
	} else {
		log.Warn("Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := socket.NewHub()
	go hub.Run(ctx)
	broadcaster := socket.NewBroadcaster(hub)

	notificationSvc := notification.NewService(repos.UserRepo)
	notificationSvc.SetPusher(broadcaster)

	// ============================================
	// Initialize Summary Generation
	// ============================================
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set, summaries will be unavailable")
	}
	summarizer := summary.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, time.Duration(cfg.SummaryTimeoutSeconds)*time.Second)
	summaryCache := summary.NewRedisCache(redisDB, time.Duration(cfg.SummaryCacheMinutes)*time.Minute)

	// ============================================
	// Initialize All Services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:      cfg,
		Repos:       repos,
		NotifSvc:    notificationSvc,
		Mailer:      mailer,
		Presence:    broadcaster,
		Broadcaster: broadcaster,
		Summarizer:  summarizer,
		Cache:       summaryCache,
	})

	if cfg.Environment != "production" {
		if err := seed.SeedData(ctx, repos); err != nil {
			log.WithError(err).Error("Seeding development data failed")
		}
	}

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	scheduler := cron.NewScheduler(repos.NotificationRepo, cfg.NotificationRetentionDays)
	if err := scheduler.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start scheduler")
	}
	defer scheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL, "http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		cacheStatus := "disabled"
		if redisDB != nil {
			cacheStatus = "connected"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now(),
			"database":   "connected",
			"cache":      cacheStatus,
			"websocket":  "active",
			"ws_clients": hub.GetConnectedClientsCount(),
			"email":      emailStatus,
		})
	})

	// Room subscriptions are checked against the same policy as HTTP reads.
	wsHandler := socket.NewHandler(hub, services.Auth.UserIDFromAccessToken, func(userID, room string) bool {
		_, actor, err := services.User.ResolveActor(context.Background(), userID)
		if err != nil {
			return false
		}
		return services.Project.CanSubscribe(context.Background(), actor, room)
	})

	api := r.Group("/api")
	api.GET("/ws", wsHandler.HandleWebSocket)

	h := handlers.NewHandlers(services)
	h.Register(api, middleware.AuthMiddleware(services.Auth, services.User))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	log.Info("Server exited")
}
