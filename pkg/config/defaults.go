package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "cyclecount"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024  // 1MB
	DefaultMaxImportSize  = 16 * 1024 * 1024 // 16MB, xlsx workbooks

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// A claimed location stays locked this long before another counter
	// may take it over.
	DefaultAssignmentLockTTL = 20 * time.Minute

	DefaultLockSweepSchedule = "* * * * *"

	DefaultTimezoneName    = "America/Chicago"
	DefaultLanguage        = "en"
	DefaultPaginationLimit = 100

	DefaultCountEventsTopic      = "cyclecount.counts"
	DefaultAssignmentEventsTopic = "cyclecount.assignments"
	DefaultEventsDLQTopic        = "cyclecount.events.dlq"
	DefaultNotifierGroupID       = "cyclecount-notifier"
)

