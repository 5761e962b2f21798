package models

import (
	"math"

	"github.com/Temutjin2k/taximeter/pkg/validator"
)

// Tariff is a named fare schedule. Monetary values are integer currency units.
type Tariff struct {
	Name               string  `json:"name"`
	FlagDrop           int64   `json:"flag_drop"`
	UnitCharge         int64   `json:"unit_charge"`
	UnitDistanceMeters float64 `json:"unit_distance_meters"`
	UnitWaitMillis     int64   `json:"unit_wait_millis"`
	MinMovingSpeedKmh  float64 `json:"min_moving_speed_kmh"`
	// MaxSpeedKmh of 0 disables the speed alert.
	MaxSpeedKmh float64 `json:"max_speed_kmh"`
	Active      bool    `json:"active"`
}

// Validate fills v with every range violation of the tariff.
func (t Tariff) Validate(v *validator.Validator) {
	v.Check(t.Name != "", "name", "must be provided")
	v.Check(len(t.Name) <= 64, "name", "must not be more than 64 bytes long")
	v.Check(t.FlagDrop >= 0, "flag_drop", "must not be negative")
	v.Check(t.UnitCharge >= 0, "unit_charge", "must not be negative")
	v.Check(t.UnitDistanceMeters > 0 && !math.IsInf(t.UnitDistanceMeters, 0), "unit_distance_meters", "must be a positive number")
	v.Check(t.UnitWaitMillis > 0, "unit_wait_millis", "must be positive")
	v.Check(t.MinMovingSpeedKmh >= 0 && !math.IsInf(t.MinMovingSpeedKmh, 0), "min_moving_speed_kmh", "must not be negative")
	v.Check(t.MaxSpeedKmh >= 0 && !math.IsInf(t.MaxSpeedKmh, 0), "max_speed_kmh", "must not be negative")
	if t.MaxSpeedKmh > 0 {
		v.Check(t.MaxSpeedKmh > t.MinMovingSpeedKmh, "max_speed_kmh", "must be greater than min_moving_speed_kmh")
	}
}

// SpeedAlertEnabled reports whether the tariff defines a speed limit.
func (t Tariff) SpeedAlertEnabled() bool {
	return t.MaxSpeedKmh > 0
}

// DefaultTariffs returns the factory fare schedules. "day" is active.
func DefaultTariffs() []Tariff {
	base := func(name string, flagDrop, unit int64, meters float64) Tariff {
		return Tariff{
			Name:               name,
			FlagDrop:           flagDrop,
			UnitCharge:         unit,
			UnitDistanceMeters: meters,
			UnitWaitMillis:     60_000,
			MinMovingSpeedKmh:  3,
			MaxSpeedKmh:        120,
		}
	}

	day := base("day", 450, 190, 200)
	day.Active = true

	return []Tariff{
		day,
		base("night", 550, 230, 200),
		base("holiday", 600, 250, 200),
		base("suburban", 500, 210, 250),
		base("urban", 450, 190, 180),
	}
}
