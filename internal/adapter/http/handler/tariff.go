package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Temutjin2k/taximeter/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/service/tariff"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

type TariffService interface {
	List() []models.Tariff
	Get(name string) (models.Tariff, error)
	Save(ctx context.Context, t models.Tariff) (models.Tariff, error)
}

// TariffActivator switches the active tariff. It refuses while a trip is open.
type TariffActivator interface {
	ActivateTariff(ctx context.Context, name string) error
}

type Tariff struct {
	service   TariffService
	activator TariffActivator
	l         logger.Logger
}

func NewTariff(service TariffService, activator TariffActivator, l logger.Logger) *Tariff {
	return &Tariff{
		service:   service,
		activator: activator,
		l:         l,
	}
}

func (h *Tariff) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_tariffs")

	if err := writeJSON(w, http.StatusOK, envelope{"tariffs": h.service.List()}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w)
	}
}

func (h *Tariff) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_tariff")

	t, err := h.service.Get(r.PathValue("name"))
	if err != nil {
		h.l.Warn(ctx, "failed to get tariff", "error", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"tariff": t}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w)
	}
}

// Put creates or replaces the named tariff. Activation state is kept.
func (h *Tariff) Put(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "save_tariff")
	name := r.PathValue("name")

	var req dto.TariffRequest
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

	saved, err := h.service.Save(ctx, req.ToModel(name))
	if err != nil {
		var verr *tariff.ValidationError
		if errors.As(err, &verr) {
			failedValidationResponse(w, verr.Fields)
			return
		}
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to save tariff", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"tariff": saved}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w)
		return
	}

	h.l.Info(ctx, "tariff saved", "tariff", saved.Name)
}

func (h *Tariff) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "activate_tariff")
	name := r.PathValue("name")

	if err := h.activator.ActivateTariff(ctx, name); err != nil {
		h.l.Warn(ctx, "tariff activation rejected", "tariff", name, "error", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"active": name}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w)
	}
}
