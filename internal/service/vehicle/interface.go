package vehicle

import (
	"context"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
)

// Store persists the vehicle. Get returns types.ErrNotFound before the
// first Save.
type Store interface {
	Get(ctx context.Context) (models.Vehicle, error)
	Save(ctx context.Context, v models.Vehicle) error
}
