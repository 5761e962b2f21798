package models

import (
	"time"

	"github.com/google/uuid"
)

/* ======================= rabbitmq ======================= */

// PositionMessage is a GPS fix delivered on the position feed queue.
type PositionMessage struct {
	VehiclePlate string  `json:"vehicle_plate,omitempty"`
	TimestampMs  int64   `json:"timestamp_ms"`
	SpeedMps     float64 `json:"speed_mps"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

// Position converts the wire message to the domain fix.
func (m PositionMessage) Position() Position {
	return Position{
		TimestampMs: m.TimestampMs,
		SpeedMps:    m.SpeedMps,
		Latitude:    m.Lat,
		Longitude:   m.Lng,
	}
}

// TripCompletedMessage is published once a trip is acknowledged.
type TripCompletedMessage struct {
	TripID         uuid.UUID `json:"trip_id"`
	VehiclePlate   string    `json:"vehicle_plate,omitempty"`
	Tariff         string    `json:"tariff"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	DistanceMeters float64   `json:"distance_meters"`
	WaitingSeconds int64     `json:"waiting_seconds"`
	FareTotal      int64     `json:"fare_total"`
	Timestamp      time.Time `json:"timestamp"`
	CorrelationID  string    `json:"correlation_id"`
}
