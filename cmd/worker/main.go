package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tojmed/booking-api/config"
	"github.com/tojmed/booking-api/internal/repository/postgres"
	"github.com/tojmed/booking-api/pkg/email"
	"github.com/tojmed/booking-api/pkg/logger"
	redisbroker "github.com/tojmed/booking-api/pkg/messaging/redis"
	"github.com/tojmed/booking-api/pkg/metrics"
	"github.com/tojmed/booking-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	zl := zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()
	lg := logger.FromZerolog(zl)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		lg.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewBroker(cfg.Redis.ToBrokerConfig(), &zl)
	if err != nil {
		lg.Fatal(err, "failed to create Redis broker")
	}
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	m := metrics.New("booking_worker")
	m.Register(prometheus.DefaultRegisterer)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		cfg.Outbox.ToWorkerConfig(),
		lg,
		m,
	)

	mailer := email.NewMailer(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	notifier := worker.NewNotifier(broker, mailer, cfg.SMTP.NotifyTo, lg, m)

	setupHealthCheck(lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		lg.Info("shutting down...")
		cancel()
	}()

	go func() {
		if err := notifier.Start(ctx); err != nil {
			lg.Error(err, "notifier stopped")
		}
	}()

	sweepInterval := cfg.Outbox.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	go processor.StartRetentionSweep(ctx, sweepInterval)

	processor.Start(ctx)
}

func setupHealthCheck(lg *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			lg.Error(err, "health check server failed")
			os.Exit(1)
		}
	}()
}
