package config

import "time"

const (
	DefaultRentalAPIBaseURL = "http://localhost:5000"
	DefaultRentalAPITimeout = 10 * time.Second

	// Mongo, Redis and Kafka are off unless configured.
	DefaultMongoURI          = ""
	DefaultMongoDatabaseName = "rentawheel"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr         = ""
	DefaultRedisDB           = 0
	DefaultReferenceCacheTTL = 5 * time.Minute

	DefaultKafkaBrokers             = ""
	DefaultKafkaTopic               = "rental.checkout.events"
	DefaultKafkaDLQTopic            = ""
	DefaultKafkaProducerMaxAttempts = 3
	DefaultKafkaProducerBatch       = 10 * time.Millisecond
	DefaultKafkaProducerAcks        = -1
	DefaultKafkaProducerCompression = "snappy"

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultSessionTTL           = 12 * time.Hour
	DefaultSessionSweepInterval = 5 * time.Minute

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	minSessionSecretLength = 32
)
