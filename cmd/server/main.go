// Command server runs the trip monitoring API together with its background
// workers: the trip event dispatcher, the notification consumers, the live
// monitoring sessions and their reconciler.
//
// @title                       Trip Monitor API
// @version                     1.0
// @description                 Trip progress and live location monitoring for marketplace shipments.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog"

	"github.com/fretenet/trip-monitor/internal/api"
	"github.com/fretenet/trip-monitor/internal/core/monitor"
	"github.com/fretenet/trip-monitor/internal/core/ports"
	"github.com/fretenet/trip-monitor/internal/core/service"
	mongodb "github.com/fretenet/trip-monitor/internal/infrastructure/db/mongo"
	redisdb "github.com/fretenet/trip-monitor/internal/infrastructure/db/redis"
	"github.com/fretenet/trip-monitor/internal/infrastructure/email"
	"github.com/fretenet/trip-monitor/internal/infrastructure/http/handlers"
	"github.com/fretenet/trip-monitor/internal/infrastructure/queue"
	"github.com/fretenet/trip-monitor/internal/pkg/config"
	"github.com/fretenet/trip-monitor/pkg/logger"
)

const (
	shutdownTimeout = 15 * time.Second
	tokenTTL        = 24 * time.Hour
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
		File:   cfg.LogFile,
	})
	defer func() { _ = logger.Close() }()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		_ = logger.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	// --- Notifications ---
	rmqErrs := make(chan error, 16)
	go func() {
		for err := range rmqErrs {
			log.Warn().Err(err).Msg("notification queue error")
		}
	}()
	rmqConn, err := rmq.OpenConnectionWithRedisClient("trip-monitor", rdb, rmqErrs)
	if err != nil {
		return err
	}
	notifications, err := rmqConn.OpenQueue(queue.NotificationsQueue)
	if err != nil {
		return err
	}
	notifier := queue.NewNotifier(notifications)

	var mailer queue.EmailSender
	if cfg.Notify.SESFrom != "" {
		ses, err := email.NewSESSender(ctx, cfg.Notify.SESRegion, cfg.Notify.SESFrom, log)
		if err != nil {
			return err
		}
		mailer = ses
	} else {
		log.Warn().Msg("SES_FROM not set, operator e-mails disabled")
	}
	consumer := queue.NewNotificationConsumer(mongodb.NewNotificationRepository(db), mailer, cfg.Notify.OperatorEmails, log)
	if err := queue.StartConsumers(notifications, consumer, cfg.Notify.Consumers); err != nil {
		return err
	}

	// --- Repositories ---
	shipments := mongodb.NewShipmentStatusRepository(db)
	positions := redisdb.NewPositionSource(rdb, cfg.Tracking.FixMaxAge)
	tripCache := redisdb.NewTripCache(rdb, cfg.Tracking.TripCacheTTL, log)

	// --- Services ---
	dispatcher := queue.NewDispatcher(cfg.Tracking.TripEventWorkers, log)
	trips := mongodb.NewTripRepository(db)
	tripService := service.NewTripService(trips, shipments, tripCache, dispatcher, log)
	locationService := service.NewLocationService(
		mongodb.NewLocationRepository(db),
		redisdb.NewLegacyLocationWriter(rdb, cfg.Tracking.LegacyLocationTTL),
		cfg.Tracking.LocationMinInterval,
		log,
	)
	incidentService := service.NewIncidentService(mongodb.NewIncidentRepository(db), notifier, log)
	authService := service.NewAuthService(mongodb.NewAuthRepository(db), cfg.JWTSecret, tokenTTL)

	manager := monitor.NewManager(monitor.Deps{
		Source:    positions,
		Reporter:  locationService,
		Fleet:     mongodb.NewFleetRepository(db),
		Shipments: shipments,
		Trips:     trips,
		Incidents: incidentService,
		Notifier:  notifier,
	}, ports.SessionOptions{
		PollInterval:        cfg.Tracking.PollInterval,
		AcquireTimeout:      cfg.Tracking.AcquireTimeout,
		FailureThreshold:    cfg.Tracking.FailureThreshold,
		IncidentCooldown:    cfg.Tracking.IncidentCooldown,
		SignalLossThreshold: cfg.Tracking.SignalLossThreshold,
		SignalLossGrace:     cfg.Tracking.SignalLossGrace,
	}, log)
	locationService.SetListener(manager)

	dispatcher.Subscribe(service.NewTripCacheInvalidator(tripCache))
	dispatcher.Subscribe(service.NewTripUserNotifier(notifier))
	dispatcher.Subscribe(manager)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	reconciler, err := monitor.NewReconciler(manager, cfg.Tracking.ReconcileSchedule, log)
	if err != nil {
		cancelWorkers()
		return err
	}
	reconciler.Start()

	// --- HTTP ---
	e := api.NewRouter(api.Services{
		Auth:       authService,
		Trips:      tripService,
		Locations:  locationService,
		Fixes:      positions,
		Monitoring: manager,
		Checks:     []handlers.DependencyCheck{handlers.MongoCheck(db), handlers.RedisCheck(rdb)},
	}, cfg.JWTSecret, log)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("http shutdown")
	}
	reconciler.Stop()
	manager.Shutdown()
	cancelWorkers()
	dispatcher.Wait()
	<-rmqConn.StopAllConsuming()

	log.Info().Msg("shutdown complete")
	return err
}
