package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Temutjin2k/taximeter/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/service/vehicle"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

type VehicleService interface {
	Current() models.Vehicle
	Update(ctx context.Context, v models.Vehicle) (models.Vehicle, error)
}

type Vehicle struct {
	service VehicleService
	l       logger.Logger
}

func NewVehicle(service VehicleService, l logger.Logger) *Vehicle {
	return &Vehicle{
		service: service,
		l:       l,
	}
}

func (h *Vehicle) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_vehicle")

	if err := writeJSON(w, http.StatusOK, envelope{"vehicle": h.service.Current()}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w)
	}
}

// Put replaces the vehicle data. Trips recorded earlier keep their plate.
func (h *Vehicle) Put(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_vehicle")

	var req dto.VehicleRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	saved, err := h.service.Update(ctx, req.ToModel())
	if err != nil {
		var verr *vehicle.ValidationError
		if errors.As(err, &verr) {
			failedValidationResponse(w, verr.Fields)
			return
		}
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update vehicle", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"vehicle": saved}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w)
		return
	}

	h.l.Info(ctx, "vehicle updated", "plate", saved.Plate)
}
