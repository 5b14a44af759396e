package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog_service/internal/cache"
	"blog_service/internal/config"
	"blog_service/internal/db"
	"blog_service/internal/handler"
	"blog_service/internal/observability"
	"blog_service/internal/post"
	"blog_service/internal/queue"
	"blog_service/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	database := db.Init(&cfg.DB)
	defer func() {
		if err := database.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close database connection")
		}
	}()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	logrus.Info("Metrics initialized")

	// Sessions live in Redis when it is configured, otherwise in the database.
	var sessions session.Store
	if cfg.Redis.Enabled() {
		rdb := cache.SetupRedis(&cfg.Redis)
		defer func() {
			if err := rdb.Close(); err != nil {
				logrus.WithError(err).Error("Failed to close redis connection")
			}
		}()
		sessions = cache.NewSessionStore(rdb)
	} else {
		sqlStore := session.NewSQLStore(database)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		purged, err := sqlStore.PurgeExpired(ctx)
		cancel()
		if err != nil {
			logrus.WithError(err).Warn("Failed to purge expired sessions")
		}
		metrics.RecordSessionsPurged(purged)
		sessions = sqlStore
	}

	events := post.DiscardEvents
	if cfg.RabbitMQ.Enabled() {
		conn := queue.SetupRabbitMQ(&cfg.RabbitMQ)
		defer func() {
			if err := conn.Close(); err != nil {
				logrus.WithError(err).Error("Failed to close RabbitMQ connection")
			}
		}()

		ch, err := queue.CreateChannel(conn)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to create RabbitMQ channel")
		}
		if _, err := queue.DeclareQueue(ch, queue.PostEventsQueue); err != nil {
			logrus.WithError(err).Fatal("Failed to declare RabbitMQ queue")
		}
		_ = ch.Close()

		events = queue.NewEventPublisher(conn, metrics)
	} else {
		logrus.Info("RABBITMQ_URL not set, post events are not published")
	}

	r := handler.SetupHandler(handler.Dependencies{
		DB:       database,
		Sessions: sessions,
		Events:   events,
		Metrics:  metrics,
		Gatherer: prometheus.DefaultGatherer,
		Config:   cfg,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logrus.Infof("Starting server on :%s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}
}
