package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VehicleRepo stores the single vehicle row the meter prints on receipts.
type VehicleRepo struct {
	db *pgxpool.Pool
}

func NewVehicleRepo(db *pgxpool.Pool) *VehicleRepo {
	return &VehicleRepo{
		db: db,
	}
}

// Get returns the stored vehicle or ErrNotFound before the first Save.
func (r *VehicleRepo) Get(ctx context.Context) (v models.Vehicle, err error) {
	const op = "VehicleRepo.Get"
	defer observe("vehicle_get", time.Now(), &err)

	query := `SELECT plate, model, driver FROM vehicles WHERE id = 1`

	if err := TxorDB(ctx, r.db).QueryRow(ctx, query).Scan(&v.Plate, &v.Model, &v.Driver); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Vehicle{}, fmt.Errorf("%s: %w", op, types.ErrNotFound)
		}
		return models.Vehicle{}, fmt.Errorf("%s: %w: %v", op, types.ErrDatabaseFailed, err)
	}

	return v, nil
}

// Save creates or replaces the vehicle row.
func (r *VehicleRepo) Save(ctx context.Context, v models.Vehicle) (err error) {
	const op = "VehicleRepo.Save"
	defer observe("vehicle_save", time.Now(), &err)

	query := `
		INSERT INTO vehicles(id, plate, model, driver)
		VALUES(1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			plate = EXCLUDED.plate,
			model = EXCLUDED.model,
			driver = EXCLUDED.driver,
			updated_at = now()`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, v.Plate, v.Model, v.Driver); err != nil {
		return fmt.Errorf("%s: %w: %v", op, types.ErrDatabaseFailed, err)
	}

	return nil
}
