package tariff

import (
	"context"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
)

// Store persists tariffs. Activate must switch the active tariff in a
// single transaction and return types.ErrUnknownTariff for a missing name.
type Store interface {
	List(ctx context.Context) ([]models.Tariff, error)
	Upsert(ctx context.Context, t models.Tariff) error
	Activate(ctx context.Context, name string) error
}
