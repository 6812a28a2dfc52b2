package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/api"
	"github.com/sparkserve/bookingapi/internal/config"
	"github.com/sparkserve/bookingapi/internal/outbox"
	"github.com/sparkserve/bookingapi/internal/repository/postgres"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger := newLogger(cfg)
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.EnsureSchema(db); err != nil {
		logger.Fatal("failed to apply schema", zap.Error(err))
	}

	repos := postgres.NewRepositories(db, logger)

	// Outbox sinks. Stats crediting always runs; broker and webhook
	// delivery only when configured.
	sinks := map[string]outbox.Sink{
		outbox.TopicUserStats: outbox.NewStatsSink(repos.Users),
	}

	if cfg.AMQP.Enabled {
		conn, err := amqp.Dial(cfg.AMQP.URL)
		if err != nil {
			logger.Fatal("failed to connect to AMQP broker", zap.Error(err))
		}
		defer conn.Close()

		amqpSink, err := outbox.NewAMQPSink(conn, outbox.TopicOrderCreated, outbox.TopicOrderCancelled)
		if err != nil {
			logger.Fatal("failed to declare AMQP queues", zap.Error(err))
		}
		sinks[outbox.TopicOrderCreated] = amqpSink
		sinks[outbox.TopicOrderCancelled] = amqpSink
	} else if cfg.Notify.WebhookURL != "" {
		webhookSink := outbox.NewWebhookSink(cfg.Notify.WebhookURL)
		sinks[outbox.TopicOrderCreated] = webhookSink
		sinks[outbox.TopicOrderCancelled] = webhookSink
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := outbox.NewDispatcher(repos.Outbox, sinks, cfg.Outbox.PollInterval, cfg.Outbox.MaxAttempts, logger)
	go dispatcher.Run(ctx)

	router := api.NewRouter(cfg, repos, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var zcfg zap.Config
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = level
	}

	logger, err := zcfg.Build()
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	return logger
}
