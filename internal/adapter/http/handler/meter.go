package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/taximeter/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/service/meter"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

type MeterService interface {
	Activate(ctx context.Context) (meter.Result, error)
	Deactivate(ctx context.Context) (meter.Result, error)
	StartTrip(ctx context.Context) (*models.Trip, error)
	EndTrip(ctx context.Context) (*models.Trip, error)
	Acknowledge(ctx context.Context) (*models.Trip, error)
	Snapshot(ctx context.Context) (models.Display, *models.Trip, error)
	Receipt(ctx context.Context) (models.Receipt, error)
	SubmitPosition(ctx context.Context, p models.Position) error
}

type Meter struct {
	service MeterService
	l       logger.Logger
}

func NewMeter(service MeterService, l logger.Logger) *Meter {
	return &Meter{
		service: service,
		l:       l,
	}
}

// Status returns the current display and the open trip, if any.
func (h *Meter) Status(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "meter_status")

	display, trip, err := h.service.Snapshot(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get meter snapshot", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{
		"display": display,
		"trip":    dto.NewTripResponse(trip),
	}
	h.write(ctx, w, http.StatusOK, response)
}

func (h *Meter) Activate(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "meter_activate", h.service.Activate)
}

func (h *Meter) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "meter_deactivate", h.service.Deactivate)
}

func (h *Meter) command(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context) (meter.Result, error)) {
	ctx := wrap.WithAction(r.Context(), action)

	res, err := fn(ctx)
	if err != nil {
		h.l.Warn(ctx, "meter command rejected", "error", err)
		errorResponse(w, GetCode(err), envelope{"message": publicError(err), "state": res.From})
		return
	}

	h.write(ctx, w, http.StatusOK, envelope{"state": res.To, "outcome": res.Outcome})
}

func (h *Meter) StartTrip(w http.ResponseWriter, r *http.Request) {
	h.tripCommand(w, r, "trip_start", http.StatusCreated, h.service.StartTrip)
}

func (h *Meter) EndTrip(w http.ResponseWriter, r *http.Request) {
	h.tripCommand(w, r, "trip_end", http.StatusOK, h.service.EndTrip)
}

func (h *Meter) Acknowledge(w http.ResponseWriter, r *http.Request) {
	h.tripCommand(w, r, "trip_acknowledge", http.StatusOK, h.service.Acknowledge)
}

func (h *Meter) tripCommand(w http.ResponseWriter, r *http.Request, action string, status int, fn func(context.Context) (*models.Trip, error)) {
	ctx := wrap.WithAction(r.Context(), action)

	trip, err := fn(ctx)
	if err != nil {
		h.l.Warn(ctx, "trip command rejected", "error", err)
		serviceErrorResponse(w, err)
		return
	}

	h.write(ctx, w, status, envelope{"trip": dto.NewTripResponse(trip)})
}

// Receipt renders the settled trip.
func (h *Meter) Receipt(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "trip_receipt")

	receipt, err := h.service.Receipt(ctx)
	if err != nil {
		h.l.Warn(ctx, "receipt unavailable", "error", err)
		serviceErrorResponse(w, err)
		return
	}

	h.write(ctx, w, http.StatusOK, envelope{"receipt": receipt})
}

// SubmitPosition accepts one GPS fix. Samples are applied asynchronously.
func (h *Meter) SubmitPosition(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "submit_position")

	var req dto.PositionRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid position data")
		failedValidationResponse(w, v.Errors)
		return
	}

	if err := h.service.SubmitPosition(ctx, req.ToModel()); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to submit position", err)
		serviceErrorResponse(w, err)
		return
	}

	h.write(ctx, w, http.StatusAccepted, envelope{"status": "accepted"})
}

func (h *Meter) write(ctx context.Context, w http.ResponseWriter, status int, data envelope) {
	if err := writeJSON(w, status, data, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w)
	}
}
