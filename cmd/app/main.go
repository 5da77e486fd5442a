package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Dir, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	passengerRepo := repository.NewPassengerRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	flightService := flights.NewFlightService(flightRepo, redisCache, time.Duration(cfg.Booking.FlightsCacheTTLSeconds)*time.Second)
	bookingService := booking.NewBookingService(
		bookingRepo,
		flightRepo,
		passengerRepo,
		paymentRepo,
		zlog,
		booking.WithCache(redisCache),
		booking.WithProducer(producer),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithMatchPolicy(matchPolicy(cfg.Booking.PassengerMatchPolicy)),
		booking.WithStoreTimeout(time.Duration(cfg.Booking.StoreTimeoutSeconds)*time.Second),
	)

	if err := bootstrap.Run(ctx, cfg, flightService, bookingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func matchPolicy(name string) domain.MatchPolicy {
	if name == string(domain.MatchByEmailOrPhone) {
		return domain.MatchByEmailOrPhone
	}
	return domain.MatchByEmail
}
