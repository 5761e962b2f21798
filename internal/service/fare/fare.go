// Package fare keeps the running fare of a trip.
//
// All functions mutate the trip in place and are not safe for concurrent
// use; the meter coordinator is the only caller on a live trip.
package fare

import (
	"fmt"
	"math"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/google/uuid"
)

// NewTrip starts a trip priced with a copy of tariff.
func NewTrip(tariff models.Tariff, now time.Time) *models.Trip {
	return &models.Trip{
		ID:        uuid.New(),
		Tariff:    tariff,
		StartedAt: now,
		FareTotal: tariff.FlagDrop,
	}
}

// ApplyDistance adds deltaMeters of travel and charges every newly completed
// distance unit. It returns the number of units charged.
func ApplyDistance(trip *models.Trip, deltaMeters float64) (int64, error) {
	const op = "fare.ApplyDistance"

	if deltaMeters < 0 || math.IsNaN(deltaMeters) || math.IsInf(deltaMeters, 0) {
		return 0, fmt.Errorf("%s: delta %v: %w", op, deltaMeters, types.ErrInvalidSample)
	}

	trip.DistanceMeters += deltaMeters

	units := int64(math.Floor(trip.DistanceMeters / trip.Tariff.UnitDistanceMeters))
	charged := units - trip.ChargedDistanceUnits
	if charged <= 0 {
		return 0, nil
	}

	trip.ChargedDistanceUnits = units
	trip.FareTotal += charged * trip.Tariff.UnitCharge
	return charged, nil
}

// ApplyWaitTick adds elapsedMs of stationary time and charges every wait
// unit that became due. A late tick catches up with all missed units.
func ApplyWaitTick(trip *models.Trip, elapsedMs int64) (int64, error) {
	const op = "fare.ApplyWaitTick"

	if elapsedMs < 0 {
		return 0, fmt.Errorf("%s: elapsed %d: %w", op, elapsedMs, types.ErrInvalidSample)
	}

	trip.WaitingMillis += elapsedMs
	trip.WaitProgressMillis += elapsedMs

	charged := trip.WaitProgressMillis / trip.Tariff.UnitWaitMillis
	if charged == 0 {
		return 0, nil
	}

	trip.WaitProgressMillis -= charged * trip.Tariff.UnitWaitMillis
	trip.ChargedWaitUnits += charged
	trip.FareTotal += charged * trip.Tariff.UnitCharge
	return charged, nil
}

// ResetWait forfeits the partial progress toward the next wait unit.
// Units already charged stay charged.
func ResetWait(trip *models.Trip) {
	trip.WaitProgressMillis = 0
}
