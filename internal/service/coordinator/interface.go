package coordinator

import (
	"context"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
)

// Sink receives a display frame after every change. Publish must not block.
type Sink interface {
	Publish(d models.Display)
}

// Recorder takes settled trips. Save must not block fare computation.
type Recorder interface {
	Save(ctx context.Context, trip *models.Trip)
}

// TariffRegistry resolves and switches the active tariff.
type TariffRegistry interface {
	Active() (models.Tariff, error)
	Activate(ctx context.Context, name string) error
}

// VehicleSource yields the vehicle data printed on receipts.
type VehicleSource interface {
	Current() models.Vehicle
}
