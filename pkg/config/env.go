package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvSupervisorToken = "SUPERVISOR_TOKEN"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"
	EnvMaxImportSize  = "MAX_IMPORT_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvAssignmentLockTTL = "ASSIGNMENT_LOCK_TTL"
	EnvLockSweepSchedule = "LOCK_SWEEP_SCHEDULE"

	// CC_TZ is carried over from the original deployment's environment.
	EnvDefaultTimezone = "CC_TZ"
	EnvDefaultLanguage = "DEFAULT_LANGUAGE"

	EnvCountEventsTopic      = "COUNT_EVENTS_TOPIC"
	EnvAssignmentEventsTopic = "ASSIGNMENT_EVENTS_TOPIC"
	EnvEventsDLQTopic        = "EVENTS_DLQ_TOPIC"
	EnvNotifierGroupID       = "NOTIFIER_GROUP_ID"
)
