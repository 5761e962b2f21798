package dto

import (
	"strings"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

// VehicleRequest replaces the vehicle data as a whole.
type VehicleRequest struct {
	Plate  string `json:"plate"`
	Model  string `json:"model"`
	Driver string `json:"driver"`
}

func (r *VehicleRequest) Validate(v *validator.Validator) {
	v.Check(strings.TrimSpace(r.Plate) != "", "plate", "must be provided")
}

func (r *VehicleRequest) ToModel() models.Vehicle {
	return models.Vehicle{
		Plate:  strings.TrimSpace(r.Plate),
		Model:  strings.TrimSpace(r.Model),
		Driver: strings.TrimSpace(r.Driver),
	}
}
