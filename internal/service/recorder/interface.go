package recorder

import (
	"context"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
)

type TripStore interface {
	Save(ctx context.Context, rec models.TripRecord) error
	Aggregates(ctx context.Context, r models.TimeRange) (models.Aggregates, error)
	List(ctx context.Context, r models.TimeRange, limit int) ([]models.TripRecord, error)
}

type TripPublisher interface {
	PublishTripCompleted(ctx context.Context, msg models.TripCompletedMessage) error
}

// VehicleSource yields the vehicle a settled trip is attributed to.
type VehicleSource interface {
	Current() models.Vehicle
}
