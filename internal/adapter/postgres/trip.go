package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/pkg/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceName = "taximeter"

type TripRepo struct {
	db *pgxpool.Pool
}

func NewTripRepo(db *pgxpool.Pool) *TripRepo {
	return &TripRepo{
		db: db,
	}
}

// Save inserts a trip record. Saving the same trip twice is a no-op.
func (r *TripRepo) Save(ctx context.Context, rec models.TripRecord) (err error) {
	const op = "TripRepo.Save"
	defer observe("trip_save", time.Now(), &err)

	query := `
		INSERT INTO trips(id, recorded_at, started_at, ended_at, distance_meters,
			waiting_seconds, fare_total, distance_units, wait_units, tariff_name)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query,
		rec.ID,
		rec.RecordedAt,
		rec.StartedAt,
		rec.EndedAt,
		rec.DistanceMeters,
		rec.WaitingSeconds,
		rec.FareTotal,
		rec.DistanceUnits,
		rec.WaitUnits,
		rec.TariffName,
	); err != nil {
		return fmt.Errorf("%s: %w: %v", op, types.ErrDatabaseFailed, err)
	}

	return nil
}

// Aggregates sums the trips recorded inside [from, to).
func (r *TripRepo) Aggregates(ctx context.Context, tr models.TimeRange) (agg models.Aggregates, err error) {
	const op = "TripRepo.Aggregates"
	defer observe("trip_aggregates", time.Now(), &err)

	query := `
		SELECT COUNT(*), COALESCE(SUM(fare_total), 0), COALESCE(SUM(distance_meters), 0)
		FROM trips
		WHERE recorded_at >= $1 AND recorded_at < $2`

	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, tr.From, tr.To).Scan(
		&agg.Count,
		&agg.TotalFare,
		&agg.TotalDistanceMeters,
	); err != nil {
		return models.Aggregates{}, fmt.Errorf("%s: %w: %v", op, types.ErrDatabaseFailed, err)
	}

	return agg, nil
}

// List returns up to limit trips recorded inside [from, to), newest first.
func (r *TripRepo) List(ctx context.Context, tr models.TimeRange, limit int) (_ []models.TripRecord, err error) {
	const op = "TripRepo.List"
	defer observe("trip_list", time.Now(), &err)

	query := `
		SELECT id, recorded_at, started_at, ended_at, distance_meters,
			waiting_seconds, fare_total, distance_units, wait_units, tariff_name
		FROM trips
		WHERE recorded_at >= $1 AND recorded_at < $2
		ORDER BY recorded_at DESC
		LIMIT $3`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, tr.From, tr.To, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, types.ErrDatabaseFailed, err)
	}
	defer rows.Close()

	records := make([]models.TripRecord, 0, limit)
	for rows.Next() {
		var rec models.TripRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.RecordedAt,
			&rec.StartedAt,
			&rec.EndedAt,
			&rec.DistanceMeters,
			&rec.WaitingSeconds,
			&rec.FareTotal,
			&rec.DistanceUnits,
			&rec.WaitUnits,
			&rec.TariffName,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %v", op, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, types.ErrDatabaseFailed, err)
	}

	return records, nil
}

func observe(operation string, start time.Time, err *error) {
	metrics.RecordDatabaseQuery(serviceName, operation, *err, time.Since(start))
}
