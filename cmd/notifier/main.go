package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"

	"cyclecount/internal/notifier"
	settingsrepo "cyclecount/internal/settings/repository"
	settingsservice "cyclecount/internal/settings/service"
	"cyclecount/pkg/config"
	"cyclecount/pkg/kafka"
	kafka_config "cyclecount/pkg/kafka/config"
	kafka_middleware "cyclecount/pkg/kafka/middleware"
)

const ServiceName = "cyclecount-notifier"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting cycle count notifier")

	settingsService := settingsservice.NewSettingsService(
		settingsrepo.NewMongoSettingsRepository(cfg),
		cfg,
	)
	handler := notifier.NewHandler(settingsService, &notifier.LogDispatcher{Log: cfg.Log}, cfg.Log)

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(func(msg string, args ...any) {
		cfg.Log.Info(msg, args...)
	})

	countConsumer := newConsumer(cfg, kafkaCfg, cfg.CountEventsTopic, handler.HandleCountEvent)
	assignmentConsumer := newConsumer(cfg, kafkaCfg, cfg.AssignmentEventsTopic, handler.HandleAssignmentEvent)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, c := range []*kafka.Consumer{countConsumer, assignmentConsumer} {
		wg.Add(1)
		go func(c *kafka.Consumer) {
			defer wg.Done()
			if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				cfg.Log.Error("Consumer stopped with error", "error", err)
			}
		}(c)
	}

	<-ctx.Done()
	cfg.Log.Info("Shutdown signal received")

	wg.Wait()
	if err := countConsumer.Close(); err != nil {
		cfg.Log.Error("Failed to close count consumer", "error", err)
	}
	if err := assignmentConsumer.Close(); err != nil {
		cfg.Log.Error("Failed to close assignment consumer", "error", err)
	}

	cfg.Log.Info("Notifier stopped gracefully")
}

func newConsumer(cfg *config.Config, kafkaCfg *kafka_config.Config, topic string, handler kafka.MessageHandler) *kafka.Consumer {
	consumer, err := kafka.NewConsumer(kafkaCfg, topic, cfg.NotifierGroupID, cfg.EventsDLQTopic, handler)
	if err != nil {
		cfg.Log.Fatal("Failed to create consumer", "topic", topic, "error", err)
	}

	consumer.Use(kafka_middleware.MetricsConsumerMiddleware())
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))

	return consumer
}
