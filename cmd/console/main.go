package main

import (
	"context"
	"fmt"

	"rentawheel/internal/admin"
	bookingshandler "rentawheel/internal/bookings/handler"
	bookingsservice "rentawheel/internal/bookings/service"
	bookingsvalidator "rentawheel/internal/bookings/validator"
	"rentawheel/internal/checkout"
	"rentawheel/internal/events"
	"rentawheel/internal/reference"
	"rentawheel/internal/session"
	"rentawheel/pkg/app"
	"rentawheel/pkg/config"
	"rentawheel/pkg/kafka"
	kafka_middleware "rentawheel/pkg/kafka/middleware"
	"rentawheel/pkg/validation"

	kafkago "github.com/segmentio/kafka-go"
)

const ServiceName = "console"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting rental console")

	if cfg.MongoEnabled() {
		cfg.SetMongo()
	}
	if cfg.RedisEnabled() {
		cfg.SetRedis()
	}

	validate := validation.New()
	publisher := initPublisher(cfg)
	sessions := initSessions(cfg)
	catalog := initReference(cfg)

	registry := checkout.NewRegistry(checkout.Deps{
		API:       cfg.Client.Rental,
		Reference: catalog,
		Events:    publisher,
		Log:       cfg.Log,
	})
	sessions.OnEnd(registry.Discard)
	sessions.StartSweeper(cfg.SessionSweepInterval)

	bookingService := bookingsservice.NewBookingService(
		cfg.Client.Rental,
		catalog,
		sessions,
		bookingsvalidator.NewBookingValidator(validate),
		publisher,
		cfg.Log,
	)
	adminService := admin.NewService(cfg.Client.Rental, catalog, validate, publisher, cfg.Log)

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(func(context.Context) error {
		sessions.Stop()
		return nil
	})
	serverApp.OnShutdown(func(context.Context) error { return publisher.Close() })
	serverApp.SetApp(
		session.NewHandler(cfg.Client.Rental, sessions, validate, cfg.Log),
		checkout.NewHandler(registry, sessions, validate, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, sessions, cfg.Log),
		admin.NewHandler(adminService, sessions, cfg.Log),
	)
	serverApp.Run()
}

func initSessions(cfg *config.Config) *session.Manager {
	var store session.Store = session.NewMemoryStore()
	if cfg.Client.Mongo != nil {
		store = session.NewMongoStore(cfg.Client.Mongo, cfg.MongoDatabaseName)
		cfg.Log.Info("Sessions stored in MongoDB", "database", cfg.MongoDatabaseName)
	} else {
		cfg.Log.Warn("MongoDB not configured, sessions are kept in memory")
	}
	return session.NewManager(store, session.NewTokenService(cfg.SessionSecret), cfg.SessionTTL, cfg.Log)
}

func initReference(cfg *config.Config) *reference.Loader {
	var cache reference.Cache = reference.NewMemoryCache()
	if cfg.Client.Redis != nil {
		cache = reference.NewRedisCache(cfg.Client.Redis)
		cfg.Log.Info("Reference data cached in Redis", "ttl", cfg.ReferenceCacheTTL)
	}
	return reference.NewLoader(cfg.Client.Rental, cache, cfg.ReferenceCacheTTL, cfg.Log)
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.KafkaEnabled() {
		cfg.Log.Info("Kafka not configured, domain events are dropped")
		return events.NoopPublisher{}
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaTopic,
		DLQTopic:     cfg.KafkaDLQTopic,
		MaxAttempts:  cfg.KafkaProducerMaxAttempts,
		BatchTimeout: cfg.KafkaProducerBatch,
		RequireAcks:  cfg.KafkaProducerAcks,
		Compression:  cfg.KafkaProducerCompression,
	}, kafkago.LoggerFunc(func(msg string, args ...any) {
		cfg.Log.Error("Kafka writer error", "error", fmt.Sprintf(msg, args...))
	}))
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log, cfg.KafkaTopic))

	cfg.Log.Info("Publishing domain events to Kafka", "topic", cfg.KafkaTopic)
	return events.NewKafkaPublisher(producer)
}
