package server

import (
	"net/http"

	"github.com/Temutjin2k/taximeter/internal/adapter/http/middleware"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	// System Health
	mux.HandleFunc("GET /health", routes.health.HealthCheck)
	setupMetricsRoute(mux)

	setupMeterRoutes(mux, routes, m)
	setupTariffRoutes(mux, routes, m)
	setupReportRoutes(mux, routes, m)

	mux.Handle("GET /vehicle", m.RequireRoles(routes.vehicle.Get, types.RoleOperator))
	mux.Handle("PUT /vehicle", m.RequireRoles(routes.vehicle.Put, types.RoleOperator))

	mux.Handle("GET /ws/display", m.RequireRoles(routes.display.Serve, types.RoleOperator, types.RoleViewer)) // live display frames
}

func setupMeterRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("GET /meter", m.RequireRoles(routes.meter.Status, types.RoleOperator, types.RoleViewer))          // current display and trip
	mux.Handle("GET /meter/receipt", m.RequireRoles(routes.meter.Receipt, types.RoleOperator, types.RoleViewer)) // receipt of the settled trip

	mux.Handle("POST /meter/activate", m.RequireRoles(routes.meter.Activate, types.RoleOperator))
	mux.Handle("POST /meter/deactivate", m.RequireRoles(routes.meter.Deactivate, types.RoleOperator))
	mux.Handle("POST /meter/trip/start", m.RequireRoles(routes.meter.StartTrip, types.RoleOperator))
	mux.Handle("POST /meter/trip/end", m.RequireRoles(routes.meter.EndTrip, types.RoleOperator))
	mux.Handle("POST /meter/trip/acknowledge", m.RequireRoles(routes.meter.Acknowledge, types.RoleOperator))
	mux.Handle("POST /meter/positions", m.RequireRoles(routes.meter.SubmitPosition, types.RoleOperator)) // GPS fix without the queue
}

func setupTariffRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("GET /tariffs", m.RequireRoles(routes.tariff.List, types.RoleOperator, types.RoleViewer))
	mux.Handle("GET /tariffs/{name}", m.RequireRoles(routes.tariff.Get, types.RoleOperator, types.RoleViewer))
	mux.Handle("PUT /tariffs/{name}", m.RequireRoles(routes.tariff.Put, types.RoleOperator))
	mux.Handle("POST /tariffs/{name}/activate", m.RequireRoles(routes.tariff.Activate, types.RoleOperator))
}

func setupReportRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("GET /reports/day", m.RequireRoles(routes.reports.Day, types.RoleOperator, types.RoleViewer))
	mux.Handle("GET /reports/month", m.RequireRoles(routes.reports.Month, types.RoleOperator, types.RoleViewer))
	mux.Handle("GET /reports/range", m.RequireRoles(routes.reports.Range, types.RoleOperator, types.RoleViewer))
	mux.Handle("GET /trips", m.RequireRoles(routes.reports.Trips, types.RoleOperator, types.RoleViewer))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
