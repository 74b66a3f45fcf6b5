package main

import (
	assignmenthandler "cyclecount/internal/assignments/handler"
	assignmentrepo "cyclecount/internal/assignments/repository"
	assignmentservice "cyclecount/internal/assignments/service"
	assignmentvalidator "cyclecount/internal/assignments/validator"
	countshandler "cyclecount/internal/counts/handler"
	countsrepo "cyclecount/internal/counts/repository"
	countsservice "cyclecount/internal/counts/service"
	countsvalidator "cyclecount/internal/counts/validator"
	inventoryhandler "cyclecount/internal/inventory/handler"
	inventoryrepo "cyclecount/internal/inventory/repository"
	inventoryservice "cyclecount/internal/inventory/service"
	"cyclecount/internal/scheduler"
	"cyclecount/internal/server"
	settingshandler "cyclecount/internal/settings/handler"
	settingsrepo "cyclecount/internal/settings/repository"
	settingsservice "cyclecount/internal/settings/service"
	"cyclecount/pkg/app"
	"cyclecount/pkg/config"
	"cyclecount/pkg/kafka"
	kafka_config "cyclecount/pkg/kafka/config"
	kafka_middleware "cyclecount/pkg/kafka/middleware"
)

const ServiceName = "cyclecount-server"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting cycle count server")

	assignmentProducer, countProducer := initProducers(cfg)
	defer assignmentProducer.Close()
	defer countProducer.Close()

	assignmentRepo := assignmentrepo.NewMongoAssignmentRepository(cfg)
	lockRepo := assignmentrepo.NewAssignmentLockRepository(cfg)

	invRepo := inventoryrepo.NewMongoInventoryRepository(cfg)
	invService := inventoryservice.NewInventoryService(invRepo, cfg)

	assignmentService := assignmentservice.NewAssignmentService(
		assignmentRepo,
		lockRepo,
		invService,
		assignmentProducer,
		assignmentvalidator.NewAssignmentValidator(cfg.Log),
		cfg,
	)

	submissionService := countsservice.NewSubmissionService(
		countsrepo.NewMongoSubmissionRepository(cfg),
		assignmentRepo,
		lockRepo,
		countProducer,
		countsvalidator.NewSubmissionValidator(cfg.Log),
		cfg,
	)

	settingsService := settingsservice.NewSettingsService(
		settingsrepo.NewMongoSettingsRepository(cfg),
		cfg,
	)

	sweep := scheduler.NewScheduler(cfg, assignmentRepo, lockRepo, cfg.Log)
	sweep.Start()
	defer sweep.Stop()

	router := &server.Router{
		Assignments: assignmenthandler.NewAssignmentHandler(assignmentService, cfg.Log),
		Inventory:   inventoryhandler.NewInventoryHandler(invService, cfg.Log, int64(cfg.MaxImportSize)),
		Counts:      countshandler.NewSubmissionHandler(submissionService, cfg.Log),
		Settings:    settingshandler.NewSettingsHandler(settingsService, cfg.Log),
	}

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, router)
	serverApp.Run()
}

func initProducers(cfg *config.Config) (*kafka.Producer, *kafka.Producer) {
	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(func(msg string, args ...any) {
		cfg.Log.Info(msg, args...)
	})

	assignmentProducer, err := kafka.NewProducer(kafkaCfg, cfg.AssignmentEventsTopic, cfg.EventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create assignment event producer", "error", err)
	}
	countProducer, err := kafka.NewProducer(kafkaCfg, cfg.CountEventsTopic, cfg.EventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create count event producer", "error", err)
	}

	for _, p := range []*kafka.Producer{assignmentProducer, countProducer} {
		p.Use(kafka_middleware.MetricsProducerMiddleware())
		p.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	return assignmentProducer, countProducer
}
