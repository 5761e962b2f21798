package dto

import (
	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

// TariffRequest creates or replaces a tariff. The name comes from the path.
type TariffRequest struct {
	FlagDrop           *int64   `json:"flag_drop"`
	UnitCharge         *int64   `json:"unit_charge"`
	UnitDistanceMeters *float64 `json:"unit_distance_meters"`
	UnitWaitSeconds    *int64   `json:"unit_wait_seconds"`
	MinMovingSpeedKmh  *float64 `json:"min_moving_speed_kmh"`
	MaxSpeedKmh        float64  `json:"max_speed_kmh"`
}

func (r *TariffRequest) Validate(v *validator.Validator) {
	v.Check(r.FlagDrop != nil, "flag_drop", "must be provided")
	v.Check(r.UnitCharge != nil, "unit_charge", "must be provided")
	v.Check(r.UnitDistanceMeters != nil, "unit_distance_meters", "must be provided")
	v.Check(r.UnitWaitSeconds != nil, "unit_wait_seconds", "must be provided")
	v.Check(r.MinMovingSpeedKmh != nil, "min_moving_speed_kmh", "must be provided")
}

func (r *TariffRequest) ToModel(name string) models.Tariff {
	return models.Tariff{
		Name:               name,
		FlagDrop:           *r.FlagDrop,
		UnitCharge:         *r.UnitCharge,
		UnitDistanceMeters: *r.UnitDistanceMeters,
		UnitWaitMillis:     *r.UnitWaitSeconds * 1000,
		MinMovingSpeedKmh:  *r.MinMovingSpeedKmh,
		MaxSpeedKmh:        r.MaxSpeedKmh,
	}
}
