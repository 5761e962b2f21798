package models

import (
	"time"

	"github.com/google/uuid"
)

// Position is a single GPS fix.
type Position struct {
	TimestampMs int64   `json:"timestamp_ms"`
	SpeedMps    float64 `json:"speed_mps"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// SpeedKmh converts the reported ground speed.
func (p Position) SpeedKmh() float64 {
	return p.SpeedMps * 3.6
}

// Trip is the live accounting of one fare.
//
// FareTotal always equals FlagDrop + (ChargedDistanceUnits + ChargedWaitUnits) * UnitCharge
// of the tariff the trip started with.
type Trip struct {
	ID        uuid.UUID `json:"id"`
	Tariff    Tariff    `json:"tariff"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`

	DistanceMeters float64 `json:"distance_meters"`
	// WaitingMillis is the total stationary time of the trip.
	WaitingMillis int64 `json:"waiting_millis"`
	// WaitProgressMillis is stationary time toward the next wait unit.
	WaitProgressMillis int64 `json:"wait_progress_millis"`

	ChargedDistanceUnits int64 `json:"charged_distance_units"`
	ChargedWaitUnits     int64 `json:"charged_wait_units"`
	FareTotal            int64 `json:"fare_total"`

	LastPosition     *Position `json:"last_position,omitempty"`
	CurrentSpeedKmh  float64   `json:"current_speed_kmh"`
	SpeedAlertActive bool      `json:"speed_alert_active"`
}

// Clone returns a deep copy safe to hand to other goroutines.
func (t *Trip) Clone() *Trip {
	if t == nil {
		return nil
	}
	c := *t
	if t.LastPosition != nil {
		p := *t.LastPosition
		c.LastPosition = &p
	}
	return &c
}

// TripRecord is the persisted summary of a completed trip.
type TripRecord struct {
	ID             uuid.UUID `json:"id"`
	RecordedAt     time.Time `json:"recorded_at"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	DistanceMeters float64   `json:"distance_meters"`
	WaitingSeconds int64     `json:"waiting_seconds"`
	FareTotal      int64     `json:"fare_total"`
	DistanceUnits  int64     `json:"distance_units"`
	WaitUnits      int64     `json:"wait_units"`
	TariffName     string    `json:"tariff_name"`
}

// NewTripRecord summarizes a settled trip.
func NewTripRecord(t *Trip, recordedAt time.Time) TripRecord {
	ended := t.EndedAt
	if ended.IsZero() {
		ended = recordedAt
	}
	return TripRecord{
		ID:             t.ID,
		RecordedAt:     recordedAt,
		StartedAt:      t.StartedAt,
		EndedAt:        ended,
		DistanceMeters: t.DistanceMeters,
		WaitingSeconds: t.WaitingMillis / 1000,
		FareTotal:      t.FareTotal,
		DistanceUnits:  t.ChargedDistanceUnits,
		WaitUnits:      t.ChargedWaitUnits,
		TariffName:     t.Tariff.Name,
	}
}

// Aggregates are totals over a set of trip records.
type Aggregates struct {
	Count               int64   `json:"count"`
	TotalFare           int64   `json:"total_fare"`
	TotalDistanceMeters float64 `json:"total_distance_meters"`
}

// TimeRange is the half-open interval [From, To).
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Valid reports whether the range is non-empty.
func (r TimeRange) Valid() bool {
	return r.To.After(r.From)
}

// Contains reports whether ts lies inside the range.
func (r TimeRange) Contains(ts time.Time) bool {
	return !ts.Before(r.From) && ts.Before(r.To)
}

// DayRange returns the calendar day containing ts in ts's location.
func DayRange(ts time.Time) TimeRange {
	y, m, d := ts.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
	return TimeRange{From: from, To: from.AddDate(0, 0, 1)}
}

// MonthRange returns the calendar month containing ts in ts's location.
func MonthRange(ts time.Time) TimeRange {
	y, m, _ := ts.Date()
	from := time.Date(y, m, 1, 0, 0, 0, 0, ts.Location())
	return TimeRange{From: from, To: from.AddDate(0, 1, 0)}
}
