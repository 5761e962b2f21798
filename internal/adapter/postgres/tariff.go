package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/pkg/postgres"
	"github.com/Temutjin2k/taximeter/pkg/trm"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TariffRepo struct {
	db *pgxpool.Pool
	tx trm.TxManager
}

func NewTariffRepo(db *pgxpool.Pool, tx trm.TxManager) *TariffRepo {
	return &TariffRepo{
		db: db,
		tx: tx,
	}
}

// List returns every tariff in registration order from one read-only snapshot.
func (r *TariffRepo) List(ctx context.Context) (tariffs []models.Tariff, err error) {
	defer observe("tariff_list", time.Now(), &err)

	err = r.tx.DoReadOnly(ctx, func(ctx context.Context) error {
		var err error
		tariffs, err = r.list(ctx)
		return err
	})
	return tariffs, err
}

func (r *TariffRepo) list(ctx context.Context) ([]models.Tariff, error) {
	const op = "TariffRepo.List"

	query := `
		SELECT name, flag_drop, unit_charge, unit_distance_meters, unit_wait_millis,
			min_moving_speed_kmh, max_speed_kmh, is_active
		FROM tariffs
		ORDER BY created_at, name`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, types.ErrDatabaseFailed, err)
	}
	defer rows.Close()

	var tariffs []models.Tariff
	for rows.Next() {
		var t models.Tariff
		if err := rows.Scan(
			&t.Name,
			&t.FlagDrop,
			&t.UnitCharge,
			&t.UnitDistanceMeters,
			&t.UnitWaitMillis,
			&t.MinMovingSpeedKmh,
			&t.MaxSpeedKmh,
			&t.Active,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %v", op, err)
		}
		tariffs = append(tariffs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, types.ErrDatabaseFailed, err)
	}

	return tariffs, nil
}

// Upsert creates or replaces a tariff. The activation flag is only written
// on insert; Activate owns it afterwards.
func (r *TariffRepo) Upsert(ctx context.Context, t models.Tariff) (err error) {
	const op = "TariffRepo.Upsert"
	defer observe("tariff_upsert", time.Now(), &err)

	query := `
		INSERT INTO tariffs(name, flag_drop, unit_charge, unit_distance_meters, unit_wait_millis,
			min_moving_speed_kmh, max_speed_kmh, is_active)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO UPDATE SET
			flag_drop = EXCLUDED.flag_drop,
			unit_charge = EXCLUDED.unit_charge,
			unit_distance_meters = EXCLUDED.unit_distance_meters,
			unit_wait_millis = EXCLUDED.unit_wait_millis,
			min_moving_speed_kmh = EXCLUDED.min_moving_speed_kmh,
			max_speed_kmh = EXCLUDED.max_speed_kmh,
			updated_at = now()`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query,
		t.Name,
		t.FlagDrop,
		t.UnitCharge,
		t.UnitDistanceMeters,
		t.UnitWaitMillis,
		t.MinMovingSpeedKmh,
		t.MaxSpeedKmh,
		t.Active,
	); err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("%s: %q: another tariff is active: %w", op, t.Name, types.ErrInvalidTariff)
		}
		return fmt.Errorf("%s: %w: %v", op, types.ErrDatabaseFailed, err)
	}

	return nil
}

// Activate makes name the only active tariff in one transaction.
func (r *TariffRepo) Activate(ctx context.Context, name string) (err error) {
	const op = "TariffRepo.Activate"
	defer observe("tariff_activate", time.Now(), &err)

	return r.tx.Do(ctx, func(ctx context.Context) error {
		q := TxorDB(ctx, r.db)

		if _, err := q.Exec(ctx, `UPDATE tariffs SET is_active = FALSE, updated_at = now() WHERE is_active AND name <> $1`, name); err != nil {
			return fmt.Errorf("%s: deactivate: %w: %v", op, types.ErrDatabaseFailed, err)
		}

		tag, err := q.Exec(ctx, `UPDATE tariffs SET is_active = TRUE, updated_at = now() WHERE name = $1`, name)
		if err != nil {
			return fmt.Errorf("%s: activate: %w: %v", op, types.ErrDatabaseFailed, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s: %q: %w", op, name, types.ErrUnknownTariff)
		}

		return nil
	})
}
