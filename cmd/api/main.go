package main

import (
	bookingshandler "github.com/nathidaum/spots-backend/internal/bookings/handler"
	bookingsrepository "github.com/nathidaum/spots-backend/internal/bookings/repository"
	bookingsservice "github.com/nathidaum/spots-backend/internal/bookings/service"
	bookingsvalidator "github.com/nathidaum/spots-backend/internal/bookings/validator"
	spotshandler "github.com/nathidaum/spots-backend/internal/spots/handler"
	spotsrepository "github.com/nathidaum/spots-backend/internal/spots/repository"
	spotsservice "github.com/nathidaum/spots-backend/internal/spots/service"
	spotsvalidator "github.com/nathidaum/spots-backend/internal/spots/validator"
	usershandler "github.com/nathidaum/spots-backend/internal/users/handler"
	usersrepository "github.com/nathidaum/spots-backend/internal/users/repository"
	usersservice "github.com/nathidaum/spots-backend/internal/users/service"
	usersvalidator "github.com/nathidaum/spots-backend/internal/users/validator"
	"github.com/nathidaum/spots-backend/pkg/app"
	"github.com/nathidaum/spots-backend/pkg/config"
	"github.com/nathidaum/spots-backend/pkg/kafka"
	kafkaconfig "github.com/nathidaum/spots-backend/pkg/kafka/config"
	"github.com/nathidaum/spots-backend/pkg/middleware"
	"github.com/nathidaum/spots-backend/pkg/token"
)

const ServiceName = "spots-api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting spots API")

	serverApp := app.NewApplication(cfg)

	producer := initProducer(cfg, serverApp)
	tokens := token.NewManager(cfg.TokenSecret, cfg.TokenTTL)
	auth := middleware.RequireAuth(tokens, cfg.Log)

	userRepo := usersrepository.NewMongoUserRepository(cfg)
	spotRepo := spotsrepository.NewMongoSpotRepository(cfg)
	bookingRepo := bookingsrepository.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepository.NewMongoBookingLockRepository(cfg)

	userService := usersservice.NewUserService(
		userRepo,
		spotRepo,
		bookingRepo,
		usersvalidator.NewUserValidator(cfg.Log),
		tokens,
		cfg,
	)
	spotService := spotsservice.NewSpotService(
		spotRepo,
		userRepo,
		bookingRepo,
		spotsvalidator.NewSpotValidator(cfg.Log),
		cfg,
	)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		lockRepo,
		spotRepo,
		userRepo,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		producer,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	serverApp.SetApp(
		usershandler.NewUserHandler(userService, auth, cfg.Log),
		spotshandler.NewSpotHandler(spotService, auth, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, auth, cfg.Log),
	)
	serverApp.Run()
}

// initProducer wires the booking event producer when brokers are configured.
// Without brokers the API runs standalone and events are skipped.
func initProducer(cfg *config.Config, serverApp *app.Application) *kafka.Producer {
	if !cfg.KafkaEnabled() {
		cfg.Log.Info("Kafka brokers not configured, booking events disabled")
		return nil
	}

	producer, err := kafka.NewProducer(
		kafkaconfig.Load(cfg.KafkaBrokers),
		cfg.KafkaBookingEventTopic,
		cfg.KafkaBookingEventTopic+".dlq",
	)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}

	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Kafka producer initialized", "topic", cfg.KafkaBookingEventTopic)
	return producer
}
