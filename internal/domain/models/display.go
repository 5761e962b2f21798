package models

import (
	"strings"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

// Display is one frame pushed to the presentation sink.
type Display struct {
	State          types.MeterState `json:"state"`
	FareTotal      int64            `json:"fare_total"`
	SpeedKmh       float64          `json:"speed_kmh"`
	WaitingSeconds int64            `json:"waiting_seconds"`
	DistanceMeters float64          `json:"distance_meters"`
	AlertVisible   bool             `json:"alert_visible"`
	Tariff         string           `json:"tariff"`
	Clock          time.Time        `json:"clock"`
}

// Vehicle identifies the cab the meter is installed in.
type Vehicle struct {
	Plate  string `json:"plate"`
	Model  string `json:"model"`
	Driver string `json:"driver"`
}

func (v Vehicle) Validate(val *validator.Validator) {
	val.Check(strings.TrimSpace(v.Plate) != "", "plate", "must be provided")
	val.Check(len(v.Plate) <= 16, "plate", "must not be more than 16 bytes long")
	val.Check(len(v.Model) <= 64, "model", "must not be more than 64 bytes long")
	val.Check(len(v.Driver) <= 64, "driver", "must not be more than 64 bytes long")
}

// Receipt is the printable summary of a settled trip.
type Receipt struct {
	Vehicle        Vehicle   `json:"vehicle"`
	TripID         string    `json:"trip_id"`
	Tariff         string    `json:"tariff"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	FlagDrop       int64     `json:"flag_drop"`
	UnitCharge     int64     `json:"unit_charge"`
	DistanceKm     float64   `json:"distance_km"`
	StoppedTime    string    `json:"stopped_time"`
	DistanceUnits  int64     `json:"distance_units"`
	WaitUnits      int64     `json:"wait_units"`
	FareTotal      int64     `json:"fare_total"`
	PrintedAt      time.Time `json:"printed_at"`
	FormattedLines []string  `json:"lines"`
}
