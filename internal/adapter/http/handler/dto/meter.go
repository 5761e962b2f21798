package dto

import (
	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

// PositionRequest is a GPS fix pushed over HTTP instead of the queue.
type PositionRequest struct {
	TimestampMs *int64   `json:"timestamp_ms"`
	SpeedMps    *float64 `json:"speed_mps"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

func (r *PositionRequest) Validate(v *validator.Validator) {
	v.Check(r.TimestampMs != nil, "timestamp_ms", "must be provided")
	v.Check(r.SpeedMps != nil, "speed_mps", "must be provided")
	v.Check(r.Lat != nil, "lat", "must be provided")
	v.Check(r.Lng != nil, "lng", "must be provided")
	if !v.Valid() {
		return
	}

	v.Check(*r.TimestampMs > 0, "timestamp_ms", "must be positive")
	v.Check(validator.Finite(*r.SpeedMps) && *r.SpeedMps >= 0, "speed_mps", "must be a non-negative number")
	v.Check(validator.Coordinates(*r.Lat, *r.Lng), "lat/lng", "must be valid coordinates")
}

func (r *PositionRequest) ToModel() models.Position {
	return models.Position{
		TimestampMs: *r.TimestampMs,
		SpeedMps:    *r.SpeedMps,
		Latitude:    *r.Lat,
		Longitude:   *r.Lng,
	}
}

// TripResponse is the trip view returned by meter commands.
type TripResponse struct {
	ID                   string  `json:"trip_id"`
	Tariff               string  `json:"tariff"`
	StartedAt            string  `json:"started_at"`
	EndedAt              string  `json:"ended_at,omitempty"`
	DistanceMeters       float64 `json:"distance_meters"`
	WaitingSeconds       int64   `json:"waiting_seconds"`
	ChargedDistanceUnits int64   `json:"charged_distance_units"`
	ChargedWaitUnits     int64   `json:"charged_wait_units"`
	FareTotal            int64   `json:"fare_total"`
	SpeedKmh             float64 `json:"speed_kmh"`
	SpeedAlert           bool    `json:"speed_alert"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func NewTripResponse(t *models.Trip) *TripResponse {
	if t == nil {
		return nil
	}
	resp := &TripResponse{
		ID:                   t.ID.String(),
		Tariff:               t.Tariff.Name,
		StartedAt:            t.StartedAt.Format(timeLayout),
		DistanceMeters:       t.DistanceMeters,
		WaitingSeconds:       t.WaitingMillis / 1000,
		ChargedDistanceUnits: t.ChargedDistanceUnits,
		ChargedWaitUnits:     t.ChargedWaitUnits,
		FareTotal:            t.FareTotal,
		SpeedKmh:             t.CurrentSpeedKmh,
		SpeedAlert:           t.SpeedAlertActive,
	}
	if !t.EndedAt.IsZero() {
		resp.EndedAt = t.EndedAt.Format(timeLayout)
	}
	return resp
}
