package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Temutjin2k/taximeter/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

type ReportService interface {
	Day(ctx context.Context, ts time.Time) (models.Aggregates, error)
	Month(ctx context.Context, ts time.Time) (models.Aggregates, error)
	QueryAggregates(ctx context.Context, tr models.TimeRange) (models.Aggregates, error)
	List(ctx context.Context, tr models.TimeRange, limit int) ([]models.TripRecord, error)
}

type Reports struct {
	service ReportService
	now     func() time.Time
	l       logger.Logger
}

func NewReports(service ReportService, l logger.Logger) *Reports {
	return &Reports{
		service: service,
		now:     time.Now,
		l:       l,
	}
}

func queryOf(r *http.Request) dto.ReportQuery {
	q := r.URL.Query()
	return dto.ReportQuery{
		Date:  q.Get("date"),
		From:  q.Get("from"),
		To:    q.Get("to"),
		Limit: q.Get("limit"),
	}
}

// Day returns the totals of one calendar day (?date=YYYY-MM-DD).
func (h *Reports) Day(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "report_day")

	q := queryOf(r)
	v := validator.New()
	q.ParseDay(v, h.now())
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	agg, err := h.service.Day(ctx, q.DateValue())
	h.aggregates(ctx, w, models.DayRange(q.DateValue()), agg, err)
}

// Month returns the totals of one calendar month (?date=YYYY-MM).
func (h *Reports) Month(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "report_month")

	q := queryOf(r)
	v := validator.New()
	q.ParseMonth(v, h.now())
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	agg, err := h.service.Month(ctx, q.DateValue())
	h.aggregates(ctx, w, models.MonthRange(q.DateValue()), agg, err)
}

// Range returns the totals of an arbitrary [from, to) window.
func (h *Reports) Range(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "report_range")

	q := queryOf(r)
	v := validator.New()
	q.ParseRange(v, h.now())
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	agg, err := h.service.QueryAggregates(ctx, q.Range())
	h.aggregates(ctx, w, q.Range(), agg, err)
}

func (h *Reports) aggregates(ctx context.Context, w http.ResponseWriter, tr models.TimeRange, agg models.Aggregates, err error) {
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to query aggregates", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{
		"range":      tr,
		"aggregates": agg,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w)
	}
}

// Trips lists recorded trips, newest first.
func (h *Reports) Trips(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_trips")

	q := queryOf(r)
	v := validator.New()
	q.ParseRange(v, h.now())
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	trips, err := h.service.List(ctx, q.Range(), q.LimitValue())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list trips", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{
		"range": q.Range(),
		"count": len(trips),
		"trips": trips,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w)
	}
}
