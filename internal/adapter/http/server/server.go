package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Temutjin2k/taximeter/config"
	"github.com/Temutjin2k/taximeter/internal/adapter/http/handler"
	"github.com/Temutjin2k/taximeter/internal/adapter/http/middleware"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	ws "github.com/Temutjin2k/taximeter/pkg/wsHub"
)

const (
	serverIPAddress = "%s:%s"
	serviceName     = "taximeter"
)

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers // routes/handlers
	m      *middleware.Middleware

	addr string
	log  logger.Logger
}

type handlers struct {
	health  *handler.Health
	meter   *handler.Meter
	tariff  *handler.Tariff
	reports *handler.Reports
	vehicle *handler.Vehicle
	display *handler.DisplayWS
}

// Services are the dependencies the HTTP API is built on.
type Services struct {
	Meter   handler.MeterService
	Tariffs handler.TariffService
	// Activator switches tariffs through the meter so open trips are respected.
	Activator handler.TariffActivator
	Reports   handler.ReportService
	Vehicles  handler.VehicleService
	Frames    handler.LastFrame
	Hub       *ws.ConnectionHub
	// Auth is nil when token checks are disabled.
	Auth   middleware.AuthService
	Health map[string]handler.Pinger
}

func New(cfg config.HTTPConfig, svc Services, logger logger.Logger) (*API, error) {
	if svc.Meter == nil || svc.Tariffs == nil || svc.Activator == nil || svc.Reports == nil || svc.Vehicles == nil {
		return nil, errors.New("meter, tariff, report and vehicle services are required")
	}
	if svc.Hub == nil || svc.Frames == nil {
		return nil, errors.New("display hub is required")
	}

	api := &API{
		mux: http.NewServeMux(),
		routes: &handlers{
			health:  handler.NewHealth(serviceName, svc.Health, logger),
			meter:   handler.NewMeter(svc.Meter, logger),
			tariff:  handler.NewTariff(svc.Tariffs, svc.Activator, logger),
			reports: handler.NewReports(svc.Reports, logger),
			vehicle: handler.NewVehicle(svc.Vehicles, logger),
			display: handler.NewDisplayWS(svc.Hub, svc.Frames, logger),
		},
		m:    middleware.NewMiddleware(svc.Auth, logger),
		addr: fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Port),
		log:  logger,
	}

	setupRoutes(api.mux, api.routes, api.m)

	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.withMiddleware(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

// Run serves in the background. Listen failures are reported on errCh.
func (a *API) Run(ctx context.Context, errCh chan<- error) {
	a.server.BaseContext = func(net.Listener) context.Context { return context.WithoutCancel(ctx) }

	go func() {
		logCtx := wrap.WithAction(ctx, "http_server_start")
		a.log.Info(logCtx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// Handler exposes the full middleware chain, mainly for tests.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Metrics(serviceName)(a.m.Logging(a.m.Auth(a.mux)))))
}
