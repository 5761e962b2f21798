package fare

import (
	"fmt"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
)

// FormatStopped renders stationary time as mm:ss.
func FormatStopped(waitingMillis int64) string {
	secs := waitingMillis / 1000
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Receipt builds the printable summary of a settled trip.
func Receipt(trip *models.Trip, vehicle models.Vehicle, now time.Time) models.Receipt {
	r := models.Receipt{
		Vehicle:       vehicle,
		TripID:        trip.ID.String(),
		Tariff:        trip.Tariff.Name,
		StartedAt:     trip.StartedAt,
		EndedAt:       trip.EndedAt,
		FlagDrop:      trip.Tariff.FlagDrop,
		UnitCharge:    trip.Tariff.UnitCharge,
		DistanceKm:    trip.DistanceMeters / 1000,
		StoppedTime:   FormatStopped(trip.WaitingMillis),
		DistanceUnits: trip.ChargedDistanceUnits,
		WaitUnits:     trip.ChargedWaitUnits,
		FareTotal:     trip.FareTotal,
		PrintedAt:     now,
	}

	r.FormattedLines = []string{
		fmt.Sprintf("PLATE:    %s", vehicle.Plate),
		fmt.Sprintf("MODEL:    %s", vehicle.Model),
		fmt.Sprintf("DRIVER:   %s", vehicle.Driver),
		fmt.Sprintf("DATE:     %s", now.Format("2006-01-02 15:04")),
		fmt.Sprintf("TARIFF:   %s", r.Tariff),
		fmt.Sprintf("FLAG:     %d", r.FlagDrop),
		fmt.Sprintf("UNIT:     %d", r.UnitCharge),
		fmt.Sprintf("DISTANCE: %.2f km", r.DistanceKm),
		fmt.Sprintf("STOPPED:  %s", r.StoppedTime),
		fmt.Sprintf("TOTAL:    %d", r.FareTotal),
	}
	return r
}
