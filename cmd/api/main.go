package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/tojmed/booking-api/config"
	"github.com/tojmed/booking-api/internal/handler"
	appointmentHandler "github.com/tojmed/booking-api/internal/handler/appointment"
	reviewHandler "github.com/tojmed/booking-api/internal/handler/review"
	scheduleHandler "github.com/tojmed/booking-api/internal/handler/schedule"
	"github.com/tojmed/booking-api/internal/middleware"
	"github.com/tojmed/booking-api/internal/repository/postgres"
	"github.com/tojmed/booking-api/internal/router"
	appointmentService "github.com/tojmed/booking-api/internal/service/appointment"
	auditService "github.com/tojmed/booking-api/internal/service/audit"
	availabilityService "github.com/tojmed/booking-api/internal/service/availability"
	eventService "github.com/tojmed/booking-api/internal/service/event"
	reviewService "github.com/tojmed/booking-api/internal/service/review"
	scheduleService "github.com/tojmed/booking-api/internal/service/schedule"
	"github.com/tojmed/booking-api/pkg/clock"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.MigrationsDir != "" {
		if err := postgres.RunMigrations(db, cfg.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize audit logger")
	}
	defer zapLogger.Sync()

	baseRepo := postgres.NewBaseRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(baseRepo)
	appointmentRepo := postgres.NewAppointmentRepository(baseRepo)
	reviewRepo := postgres.NewReviewRepository(baseRepo)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	clk := clock.Real()

	eventSvc := eventService.NewService(outboxRepo)
	auditSvc := auditService.NewService(zapLogger)
	appointmentSvc := appointmentService.NewService(appointmentRepo, eventSvc, auditSvc, clk)
	availabilitySvc := availabilityService.NewService(scheduleRepo, appointmentRepo)
	scheduleSvc := scheduleService.NewService(scheduleRepo, clk)
	reviewSvc := reviewService.NewService(reviewRepo, appointmentRepo, clk)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	healthH := handler.NewHealthHandler(db)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc, availabilitySvc)
	scheduleH := scheduleHandler.NewHandler(scheduleSvc, availabilitySvc)
	reviewH := reviewHandler.NewHandler(reviewSvc)

	rps := cfg.RateLimit.RequestsPerSecond
	if !cfg.RateLimit.Enabled {
		rps = 0
	}

	r := router.NewRouter(
		authMiddleware,
		appointmentH,
		scheduleH,
		reviewH,
		healthH,
		router.Config{
			RateLimitRPS:   rps,
			RateLimitBurst: cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORSConfig: middleware.CORSConfig{
				AllowOrigins: cfg.Security.AllowedOrigins,
				AllowMethods: cfg.Security.AllowedMethods,
				AllowHeaders: cfg.Security.AllowedHeaders,
			},
			MetricsPrefix:     "booking_api",
			PrometheusEnabled: cfg.Monitoring.PrometheusEnabled,
			MetricsPath:       cfg.Monitoring.MetricsPath,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
