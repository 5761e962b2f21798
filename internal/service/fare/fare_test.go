package fare

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
)

func testTariff() models.Tariff {
	return models.Tariff{
		Name:               "day",
		FlagDrop:           450,
		UnitCharge:         190,
		UnitDistanceMeters: 200,
		UnitWaitMillis:     60_000,
		MinMovingSpeedKmh:  3,
		MaxSpeedKmh:        120,
	}
}

// expectedFare recomputes the fare from the charged counters.
func expectedFare(trip *models.Trip) int64 {
	return trip.Tariff.FlagDrop + (trip.ChargedDistanceUnits+trip.ChargedWaitUnits)*trip.Tariff.UnitCharge
}

func assertInvariants(t *testing.T, trip *models.Trip) {
	t.Helper()
	if want := expectedFare(trip); trip.FareTotal != want {
		t.Fatalf("fare %d != expected %d", trip.FareTotal, want)
	}
	units := int64(math.Floor(trip.DistanceMeters / trip.Tariff.UnitDistanceMeters))
	if trip.ChargedDistanceUnits != units {
		t.Fatalf("distance units %d != floor %d", trip.ChargedDistanceUnits, units)
	}
}

func TestNewTripIsFresh(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	trip := NewTrip(testTariff(), now)

	if trip.FareTotal != 450 {
		t.Errorf("fare = %d, want flag drop 450", trip.FareTotal)
	}
	if trip.DistanceMeters != 0 || trip.WaitingMillis != 0 || trip.ChargedDistanceUnits != 0 || trip.ChargedWaitUnits != 0 {
		t.Errorf("counters must start at zero: %+v", trip)
	}
	if trip.LastPosition != nil {
		t.Errorf("new trip must not have a position")
	}
	if !trip.StartedAt.Equal(now) {
		t.Errorf("started at %v, want %v", trip.StartedAt, now)
	}
}

func TestTripTariffIsSnapshot(t *testing.T) {
	tariff := testTariff()
	trip := NewTrip(tariff, time.Now())
	tariff.UnitCharge = 999

	if _, err := ApplyDistance(trip, 200); err != nil {
		t.Fatal(err)
	}
	if trip.FareTotal != 640 {
		t.Errorf("fare = %d, later tariff edits must not leak into the trip", trip.FareTotal)
	}
}

func TestScenarioDistanceThenWait(t *testing.T) {
	trip := NewTrip(testTariff(), time.Now())

	// 199m in small deltas
	for range 199 {
		if _, err := ApplyDistance(trip, 1); err != nil {
			t.Fatal(err)
		}
		assertInvariants(t, trip)
	}
	if trip.FareTotal != 450 {
		t.Fatalf("fare after 199m = %d, want 450", trip.FareTotal)
	}

	charged, err := ApplyDistance(trip, 5)
	if err != nil {
		t.Fatal(err)
	}
	if charged != 1 || trip.FareTotal != 640 {
		t.Fatalf("after 204m charged=%d fare=%d, want 1 and 640", charged, trip.FareTotal)
	}

	for i := 1; i <= 65; i++ {
		if _, err := ApplyWaitTick(trip, 1000); err != nil {
			t.Fatal(err)
		}
		assertInvariants(t, trip)
		if i == 59 && trip.FareTotal != 640 {
			t.Fatalf("tick 59: fare = %d, want 640", trip.FareTotal)
		}
		if i == 60 && trip.FareTotal != 830 {
			t.Fatalf("tick 60: fare = %d, want 830", trip.FareTotal)
		}
	}
	if trip.FareTotal != 830 {
		t.Errorf("after 65 ticks fare = %d, want 830", trip.FareTotal)
	}
	if trip.WaitingMillis != 65_000 {
		t.Errorf("waiting = %d, want 65000", trip.WaitingMillis)
	}
}

func TestWaitCatchUp(t *testing.T) {
	trip := NewTrip(testTariff(), time.Now())

	charged, err := ApplyWaitTick(trip, 150_000)
	if err != nil {
		t.Fatal(err)
	}
	if charged != 2 || trip.ChargedWaitUnits != 2 {
		t.Fatalf("charged = %d, units = %d, want 2", charged, trip.ChargedWaitUnits)
	}
	if trip.WaitProgressMillis != 30_000 {
		t.Errorf("progress = %d, want 30000", trip.WaitProgressMillis)
	}
	if trip.FareTotal != 450+2*190 {
		t.Errorf("fare = %d", trip.FareTotal)
	}
}

func TestResetWaitForfeitsProgress(t *testing.T) {
	trip := NewTrip(testTariff(), time.Now())

	for range 45 {
		ApplyWaitTick(trip, 1000)
	}
	ResetWait(trip)
	for range 45 {
		ApplyWaitTick(trip, 1000)
	}

	if trip.ChargedWaitUnits != 0 || trip.FareTotal != 450 {
		t.Fatalf("partial progress must be forfeited, units=%d fare=%d", trip.ChargedWaitUnits, trip.FareTotal)
	}

	for range 15 {
		ApplyWaitTick(trip, 1000)
	}
	if trip.ChargedWaitUnits != 1 {
		t.Errorf("expected one unit after a full minute stopped, got %d", trip.ChargedWaitUnits)
	}
}

func TestResetWaitKeepsChargedUnits(t *testing.T) {
	trip := NewTrip(testTariff(), time.Now())
	ApplyWaitTick(trip, 61_000)
	ResetWait(trip)

	if trip.ChargedWaitUnits != 1 || trip.FareTotal != 640 {
		t.Errorf("charged units must not be refunded: units=%d fare=%d", trip.ChargedWaitUnits, trip.FareTotal)
	}
}

func TestZeroDeltasAreIdempotent(t *testing.T) {
	trip := NewTrip(testTariff(), time.Now())
	ApplyDistance(trip, 150)
	ApplyWaitTick(trip, 30_000)
	before := *trip

	ApplyDistance(trip, 0)
	ApplyWaitTick(trip, 0)

	if trip.FareTotal != before.FareTotal || trip.DistanceMeters != before.DistanceMeters || trip.WaitingMillis != before.WaitingMillis {
		t.Errorf("zero deltas changed the trip: before %+v after %+v", before, *trip)
	}
}

func TestInvalidSamplesRejected(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*models.Trip) error
	}{
		{"negative distance", func(tr *models.Trip) error { _, err := ApplyDistance(tr, -1); return err }},
		{"nan distance", func(tr *models.Trip) error { _, err := ApplyDistance(tr, math.NaN()); return err }},
		{"inf distance", func(tr *models.Trip) error { _, err := ApplyDistance(tr, math.Inf(1)); return err }},
		{"negative wait", func(tr *models.Trip) error { _, err := ApplyWaitTick(tr, -5); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip := NewTrip(testTariff(), time.Now())
			ApplyDistance(trip, 50)
			before := *trip

			err := tt.apply(trip)
			if !errors.Is(err, types.ErrInvalidSample) {
				t.Fatalf("err = %v, want ErrInvalidSample", err)
			}
			if *trip != before {
				t.Errorf("rejected sample mutated trip")
			}
		})
	}
}

func TestFareNeverDecreases(t *testing.T) {
	trip := NewTrip(testTariff(), time.Now())
	deltas := []float64{12.5, 0, 80, 3.3, 250, 0.01, 199.9, 7}
	prev := trip.FareTotal

	for i, d := range deltas {
		ApplyDistance(trip, d)
		if i%2 == 0 {
			ApplyWaitTick(trip, 20_000)
		} else {
			ResetWait(trip)
		}
		if trip.FareTotal < prev || trip.FareTotal < trip.Tariff.FlagDrop {
			t.Fatalf("fare decreased: %d -> %d", prev, trip.FareTotal)
		}
		assertInvariants(t, trip)
		prev = trip.FareTotal
	}
}

func TestDistanceMeters(t *testing.T) {
	p1 := models.Position{Latitude: 0, Longitude: 0}
	p2 := models.Position{Latitude: 0, Longitude: 1}

	got := DistanceMeters(p1, p2)
	// one degree of longitude on the equator
	if math.Abs(got-111_195) > 1 {
		t.Errorf("distance = %.1f, want ~111195", got)
	}
	if DistanceMeters(p1, p1) != 0 {
		t.Errorf("distance to itself must be zero")
	}
}

func TestReceipt(t *testing.T) {
	trip := NewTrip(testTariff(), time.Now())
	ApplyDistance(trip, 1234)
	ApplyWaitTick(trip, 95_000)

	r := Receipt(trip, models.Vehicle{Plate: "123ABC02", Model: "Camry", Driver: "A. Driver"}, time.Now())

	if r.StoppedTime != "01:35" {
		t.Errorf("stopped = %q, want 01:35", r.StoppedTime)
	}
	if r.DistanceKm != 1.234 {
		t.Errorf("distance km = %v", r.DistanceKm)
	}
	if r.FareTotal != trip.FareTotal || len(r.FormattedLines) == 0 {
		t.Errorf("unexpected receipt %+v", r)
	}
}
