package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Temutjin2k/taximeter/config"
	"github.com/Temutjin2k/taximeter/internal/adapter/http/handler"
	"github.com/Temutjin2k/taximeter/internal/adapter/http/middleware"
	"github.com/Temutjin2k/taximeter/internal/adapter/http/server"
	wshandler "github.com/Temutjin2k/taximeter/internal/adapter/http/ws"
	repo "github.com/Temutjin2k/taximeter/internal/adapter/postgres"
	broker "github.com/Temutjin2k/taximeter/internal/adapter/rabbit"
	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/service/auth"
	"github.com/Temutjin2k/taximeter/internal/service/coordinator"
	"github.com/Temutjin2k/taximeter/internal/service/recorder"
	"github.com/Temutjin2k/taximeter/internal/service/tariff"
	"github.com/Temutjin2k/taximeter/internal/service/vehicle"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/postgres"
	"github.com/Temutjin2k/taximeter/pkg/rabbit"
	"github.com/Temutjin2k/taximeter/pkg/trm"
	ws "github.com/Temutjin2k/taximeter/pkg/wsHub"
)

var ErrServiceNotInitialized = errors.New("service not initialized")

type App struct {
	postgresDB  *postgres.PostgreDB
	rabbit      *rabbit.RabbitMQ
	broker      *broker.MeterBroker
	registry    *tariff.Registry
	vehicles    *vehicle.Service
	recorder    *recorder.Recorder
	coordinator *coordinator.Coordinator
	hub         *ws.ConnectionHub
	display     *wshandler.DisplaySink
	httpServer  *server.API

	cfg config.Config
	log logger.Logger
}

// NewApplication connects the stores and the broker and wires the meter.
func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	ctx = wrap.WithAction(ctx, "app_init")
	a := &App{cfg: cfg, log: log}

	postgresDB, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}
	a.postgresDB = postgresDB

	if err := postgres.Migrate(ctx, postgresDB.Pool); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	txManager := trm.New(postgresDB.Pool)
	tripRepo := repo.NewTripRepo(postgresDB.Pool)
	tariffRepo := repo.NewTariffRepo(postgresDB.Pool, txManager)
	vehicleRepo := repo.NewVehicleRepo(postgresDB.Pool)

	a.registry = tariff.NewRegistry(tariffRepo, log)
	if err := a.registry.Load(ctx, models.DefaultTariffs()); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to load tariffs: %w", err)
	}

	a.vehicles = vehicle.NewService(vehicleRepo, log)
	if err := a.vehicles.Load(ctx, cfg.Vehicle.Vehicle()); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}

	var publisher recorder.TripPublisher
	if cfg.RabbitMQ.Enabled {
		client, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
		if err != nil {
			log.Error(ctx, "Failed to connect to RabbitMQ", err)
			a.close(ctx)
			return nil, err
		}
		a.rabbit = client
		a.broker = broker.NewMeterBroker(client, a.vehicles, log)
		if err := a.broker.Setup(ctx); err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("failed to declare rabbitmq topology: %w", err)
		}
		publisher = a.broker
	}

	a.recorder = recorder.New(tripRepo, publisher, a.vehicles, cfg.Recorder.QueueSize, log)

	a.hub = ws.NewConnHub(log)
	a.display = wshandler.NewDisplaySink(a.hub, cfg.Meter.DisplayBuffer, log)

	a.coordinator = coordinator.New(coordinator.Config{
		ClockInterval:    cfg.Meter.ClockInterval,
		WaitTickInterval: cfg.Meter.WaitTickInterval,
		BlinkInterval:    cfg.Meter.BlinkInterval,
		QueueSize:        cfg.Meter.QueueSize,
		Vehicles:         a.vehicles,
	}, a.registry, a.display, a.recorder, log)

	var authService middleware.AuthService
	if cfg.Auth.Enabled {
		if cfg.WeakSecret() {
			log.Warn(ctx, "auth is enabled with the default JWT secret")
		}
		authService = auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, log)
	}

	health := map[string]handler.Pinger{"postgres": postgresDB.Pool}
	if a.rabbit != nil {
		health["rabbitmq"] = a.rabbit
	}

	a.httpServer, err = server.New(cfg.HTTP, server.Services{
		Meter:     a.coordinator,
		Tariffs:   a.registry,
		Activator: a.coordinator,
		Reports:   a.recorder,
		Vehicles:  a.vehicles,
		Frames:    a.display,
		Hub:       a.hub,
		Auth:      authService,
		Health:    health,
	}, log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		a.close(ctx)
		return nil, err
	}

	return a, nil
}

// Run starts every component and blocks until a signal or a fatal error.
func (a *App) Run(ctx context.Context) error {
	if a.coordinator == nil || a.httpServer == nil {
		return ErrServiceNotInitialized
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		// stop accepting commands before the coordinator goes away
		if err := a.httpServer.Stop(context.Background()); err != nil {
			a.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
		cancel()
		wg.Wait()
		a.recorder.Wait()
		a.close(context.Background())
		a.log.Info(context.Background(), "taximeter closed")
	}()

	errCh := make(chan error, 3)

	a.recorder.Start(ctx)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.coordinator.Run(ctx); err != nil {
			errCh <- err
		}
	}()
	go func() {
		defer wg.Done()
		a.display.Run(ctx)
	}()

	if a.broker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.broker.ConsumePositions(ctx, a.coordinator.SubmitPosition); err != nil {
				errCh <- err
			}
		}()
	}

	a.httpServer.Run(ctx, errCh)

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	a.log.Info(ctx, "taximeter has been started", "vehicle", a.vehicles.Current().Plate)

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		a.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (a *App) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if a.hub != nil {
		a.hub.Close()
	}

	if a.rabbit != nil {
		if err := a.rabbit.Close(ctx); err != nil {
			a.log.Warn(ctx, "Failed to close rabbitmq", "error", err.Error())
		}
	}

	if a.postgresDB != nil && a.postgresDB.Pool != nil {
		a.postgresDB.Pool.Close()
	}
}
