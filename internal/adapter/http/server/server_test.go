package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Temutjin2k/taximeter/config"
	"github.com/Temutjin2k/taximeter/internal/adapter/http/middleware"
	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/internal/service/meter"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	ws "github.com/Temutjin2k/taximeter/pkg/wsHub"
)

type stubMeter struct{}

func (stubMeter) Activate(context.Context) (meter.Result, error) {
	return meter.Result{Outcome: types.OutcomeApplied, From: types.StateIdle, To: types.StateFree}, nil
}

func (stubMeter) Deactivate(context.Context) (meter.Result, error) {
	return meter.Result{}, types.ErrInvalidTransition
}

func (stubMeter) StartTrip(context.Context) (*models.Trip, error) {
	return nil, types.ErrInvalidTransition
}

func (stubMeter) EndTrip(context.Context) (*models.Trip, error) {
	return nil, types.ErrInvalidTransition
}

func (stubMeter) Acknowledge(context.Context) (*models.Trip, error) {
	return nil, types.ErrInvalidTransition
}

func (stubMeter) Snapshot(context.Context) (models.Display, *models.Trip, error) {
	return models.Display{State: types.StateIdle}, nil, nil
}

func (stubMeter) Receipt(context.Context) (models.Receipt, error) {
	return models.Receipt{}, types.ErrNoReceipt
}

func (stubMeter) SubmitPosition(context.Context, models.Position) error { return nil }
func (stubMeter) ActivateTariff(context.Context, string) error          { return nil }
func (stubMeter) Last() models.Display                                  { return models.Display{} }

type stubTariffs struct{}

func (stubTariffs) List() []models.Tariff { return models.DefaultTariffs() }

func (stubTariffs) Get(string) (models.Tariff, error) {
	return models.Tariff{}, types.ErrUnknownTariff
}

func (stubTariffs) Save(_ context.Context, t models.Tariff) (models.Tariff, error) {
	return t, nil
}

type stubReports struct{}

func (stubReports) Day(context.Context, time.Time) (models.Aggregates, error) {
	return models.Aggregates{}, nil
}

func (stubReports) Month(context.Context, time.Time) (models.Aggregates, error) {
	return models.Aggregates{}, nil
}

func (stubReports) QueryAggregates(context.Context, models.TimeRange) (models.Aggregates, error) {
	return models.Aggregates{}, nil
}

func (stubReports) List(context.Context, models.TimeRange, int) ([]models.TripRecord, error) {
	return nil, nil
}

type stubVehicles struct{}

func (stubVehicles) Current() models.Vehicle { return models.Vehicle{Plate: "777AAA02"} }

func (stubVehicles) Update(_ context.Context, v models.Vehicle) (models.Vehicle, error) {
	return v, nil
}

type tokenStub struct{}

func (tokenStub) RoleCheck(_ context.Context, token string) (*models.Operator, error) {
	if token == "viewer" {
		return &models.Operator{ID: "v", Role: types.RoleViewer}, nil
	}
	return nil, errors.New("invalid token")
}

func newAPI(t *testing.T, auth middleware.AuthService) http.Handler {
	t.Helper()
	l := logger.New(io.Discard, "test", logger.LevelError)
	s := stubMeter{}
	api, err := New(config.HTTPConfig{Port: "0"}, Services{
		Meter:     s,
		Tariffs:   stubTariffs{},
		Activator: s,
		Reports:   stubReports{},
		Vehicles:  stubVehicles{},
		Frames:    s,
		Hub:       ws.NewConnHub(l),
		Auth:      auth,
	}, l)
	if err != nil {
		t.Fatal(err)
	}
	return api.Handler()
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		name   string
		auth   middleware.AuthService
		method string
		path   string
		token  string
		want   int
	}{
		{"health", nil, http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", nil, http.MethodGet, "/metrics", "", http.StatusOK},
		{"status open", nil, http.MethodGet, "/meter", "", http.StatusOK},
		{"activate open", nil, http.MethodPost, "/meter/activate", "", http.StatusOK},
		{"start rejected", nil, http.MethodPost, "/meter/trip/start", "", http.StatusConflict},
		{"unknown tariff", nil, http.MethodGet, "/tariffs/none", "", http.StatusNotFound},
		{"wrong method", nil, http.MethodGet, "/meter/activate", "", http.StatusMethodNotAllowed},
		{"status anonymous", tokenStub{}, http.MethodGet, "/meter", "", http.StatusUnauthorized},
		{"status viewer", tokenStub{}, http.MethodGet, "/meter", "viewer", http.StatusOK},
		{"activate viewer", tokenStub{}, http.MethodPost, "/meter/activate", "viewer", http.StatusForbidden},
		{"health anonymous", tokenStub{}, http.MethodGet, "/health", "", http.StatusOK},
		{"vehicle open", nil, http.MethodGet, "/vehicle", "", http.StatusOK},
		{"vehicle viewer", tokenStub{}, http.MethodGet, "/vehicle", "viewer", http.StatusForbidden},
		{"vehicle edit viewer", tokenStub{}, http.MethodPut, "/vehicle", "viewer", http.StatusForbidden},
		{"display anonymous", tokenStub{}, http.MethodGet, "/ws/display", "", http.StatusUnauthorized},
		// passes the role gate, then fails the handshake on a plain request
		{"display viewer", tokenStub{}, http.MethodGet, "/ws/display", "viewer", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAPI(t, tt.auth)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if rec.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("missing request id header")
			}
		})
	}
}
