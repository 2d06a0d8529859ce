package config

const (
	EnvRentalAPIBaseURL = "RENTAL_API_BASE_URL"
	EnvRentalAPITimeout = "RENTAL_API_TIMEOUT"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr         = "REDIS_ADDR"
	EnvRedisPassword     = "REDIS_PASSWORD"
	EnvRedisDB           = "REDIS_DB"
	EnvReferenceCacheTTL = "REFERENCE_CACHE_TTL"

	EnvKafkaBrokers             = "KAFKA_BROKERS"
	EnvKafkaTopic               = "KAFKA_TOPIC"
	EnvKafkaDLQTopic            = "KAFKA_DLQ_TOPIC"
	EnvKafkaProducerMaxAttempts = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvKafkaProducerBatch       = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvKafkaProducerAcks        = "KAFKA_PRODUCER_REQUIRE_ACKS"
	EnvKafkaProducerCompression = "KAFKA_PRODUCER_COMPRESSION"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvSessionSecret        = "SESSION_SECRET"
	EnvSessionTTL           = "SESSION_TTL"
	EnvSessionSweepInterval = "SESSION_SWEEP_INTERVAL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
