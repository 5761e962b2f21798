package meter

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
)

type staticTariffs struct {
	tariff models.Tariff
	err    error
}

func (s staticTariffs) Active() (models.Tariff, error) {
	return s.tariff, s.err
}

func testTariff() models.Tariff {
	return models.Tariff{
		Name:               "day",
		FlagDrop:           450,
		UnitCharge:         190,
		UnitDistanceMeters: 200,
		UnitWaitMillis:     60_000,
		MinMovingSpeedKmh:  3,
		MaxSpeedKmh:        120,
		Active:             true,
	}
}

func occupied(t *testing.T) *Machine {
	t.Helper()
	m := New(staticTariffs{tariff: testTariff()})
	if res := m.Activate(); !res.Applied() {
		t.Fatalf("activate: %+v", res)
	}
	res, err := m.StartTrip(time.Now())
	if err != nil || !res.Applied() {
		t.Fatalf("start trip: %+v %v", res, err)
	}
	return m
}

// metersNorth returns the latitude delta for roughly d meters.
func metersNorth(d float64) float64 {
	return d / 111_195.0
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from types.MeterState
		ev   types.MeterEvent
		want types.MeterState
		ok   bool
	}{
		{types.StateIdle, types.EventActivate, types.StateFree, true},
		{types.StateFree, types.EventDeactivate, types.StateIdle, true},
		{types.StateFree, types.EventStartTrip, types.StateOccupied, true},
		{types.StateOccupied, types.EventPosition, types.StateOccupied, true},
		{types.StateOccupied, types.EventWaitTick, types.StateOccupied, true},
		{types.StateOccupied, types.EventEndTrip, types.StateSettling, true},
		{types.StateSettling, types.EventAcknowledge, types.StateFree, true},

		{types.StateIdle, types.EventStartTrip, "", false},
		{types.StateOccupied, types.EventStartTrip, "", false},
		{types.StateFree, types.EventPosition, "", false},
		{types.StateSettling, types.EventWaitTick, "", false},
		{types.StateOccupied, types.EventDeactivate, "", false},
	}

	for _, tt := range tests {
		got, ok := Next(tt.from, tt.ev)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Next(%s, %s) = %s, %v; want %s, %v", tt.from, tt.ev, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIgnoredEvents(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Machine)
		fire  func(*Machine) Result
		state types.MeterState
	}{
		{
			name:  "start trip while idle",
			setup: func(m *Machine) {},
			fire: func(m *Machine) Result {
				res, _ := m.StartTrip(time.Now())
				return res
			},
			state: types.StateIdle,
		},
		{
			name:  "start trip while occupied",
			setup: func(m *Machine) { m.Activate(); m.StartTrip(time.Now()) },
			fire: func(m *Machine) Result {
				res, _ := m.StartTrip(time.Now())
				return res
			},
			state: types.StateOccupied,
		},
		{
			name:  "position while free",
			setup: func(m *Machine) { m.Activate() },
			fire:  func(m *Machine) Result { return m.Position(models.Position{SpeedMps: 5}) },
			state: types.StateFree,
		},
		{
			name:  "wait tick while settling",
			setup: func(m *Machine) { m.Activate(); m.StartTrip(time.Now()); m.EndTrip(time.Now()) },
			fire:  func(m *Machine) Result { return m.WaitTick(1000) },
			state: types.StateSettling,
		},
		{
			name:  "deactivate while occupied",
			setup: func(m *Machine) { m.Activate(); m.StartTrip(time.Now()) },
			fire:  func(m *Machine) Result { return m.Deactivate() },
			state: types.StateOccupied,
		},
		{
			name:  "acknowledge while free",
			setup: func(m *Machine) { m.Activate() },
			fire: func(m *Machine) Result {
				res, _ := m.Acknowledge()
				return res
			},
			state: types.StateFree,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(staticTariffs{tariff: testTariff()})
			tt.setup(m)
			before := m.Trip()

			res := tt.fire(m)
			if res.Outcome != types.OutcomeIgnored {
				t.Fatalf("outcome = %s, want ignored", res.Outcome)
			}
			if !errors.Is(res.Err, types.ErrInvalidTransition) {
				t.Errorf("err = %v, want ErrInvalidTransition", res.Err)
			}
			if res.Reason == "" {
				t.Errorf("ignored result must carry a reason")
			}
			if m.State() != tt.state {
				t.Errorf("state = %s, want %s", m.State(), tt.state)
			}
			after := m.Trip()
			if (before == nil) != (after == nil) || (before != nil && before.FareTotal != after.FareTotal) {
				t.Errorf("ignored event mutated the trip")
			}
		})
	}
}

func TestStartTripWithoutTariff(t *testing.T) {
	m := New(staticTariffs{err: types.ErrNoActiveTariff})
	m.Activate()

	_, err := m.StartTrip(time.Now())
	if !errors.Is(err, types.ErrNoActiveTariff) {
		t.Fatalf("err = %v, want ErrNoActiveTariff", err)
	}
	if m.State() != types.StateFree {
		t.Errorf("state = %s, want FREE", m.State())
	}
}

func TestFullCycleResetsTrip(t *testing.T) {
	m := occupied(t)
	m.Position(models.Position{SpeedMps: 10})
	m.Position(models.Position{SpeedMps: 10, Latitude: metersNorth(500)})
	m.EndTrip(time.Now())

	res, trip := m.Acknowledge()
	if !res.Applied() || trip == nil {
		t.Fatalf("acknowledge failed: %+v", res)
	}
	if trip.FareTotal <= 450 {
		t.Errorf("first trip should have charged distance, fare=%d", trip.FareTotal)
	}
	if m.State() != types.StateFree || m.Trip() != nil {
		t.Fatalf("machine must be Free without a trip")
	}

	m.StartTrip(time.Now())
	fresh := m.Trip()
	if fresh.FareTotal != 450 || fresh.DistanceMeters != 0 || fresh.LastPosition != nil || fresh.ChargedWaitUnits != 0 {
		t.Errorf("second trip is not fresh: %+v", fresh)
	}
	if fresh.ID == trip.ID {
		t.Errorf("trip ids must differ")
	}
}

func TestScenario(t *testing.T) {
	m := occupied(t)
	speed := 20 / 3.6

	lat := 0.0
	m.Position(models.Position{SpeedMps: speed, Latitude: lat})
	for range 10 {
		lat += metersNorth(19.9)
		m.Position(models.Position{SpeedMps: speed, Latitude: lat})
	}
	if got := m.Trip(); got.FareTotal != 450 || got.DistanceMeters > 200 {
		t.Fatalf("after ~199m fare=%d distance=%.2f", got.FareTotal, got.DistanceMeters)
	}

	lat += metersNorth(5)
	m.Position(models.Position{SpeedMps: speed, Latitude: lat})
	if got := m.Trip(); got.FareTotal != 640 {
		t.Fatalf("after ~204m fare=%d distance=%.2f, want 640", got.FareTotal, got.DistanceMeters)
	}

	m.Position(models.Position{SpeedMps: 0, Latitude: lat})
	for i := 1; i <= 65; i++ {
		m.WaitTick(1000)
		if i == 60 && m.Trip().FareTotal != 830 {
			t.Fatalf("tick 60 fare = %d, want 830", m.Trip().FareTotal)
		}
	}
	if got := m.Trip().FareTotal; got != 830 {
		t.Errorf("after 65 ticks fare = %d, want 830", got)
	}
}

func TestSlowMovementNotCounted(t *testing.T) {
	m := occupied(t)
	// 2 km/h, below the 3 km/h minimum
	m.Position(models.Position{SpeedMps: 2 / 3.6})
	m.Position(models.Position{SpeedMps: 2 / 3.6, Latitude: metersNorth(300)})

	trip := m.Trip()
	if trip.DistanceMeters != 0 || trip.FareTotal != 450 {
		t.Errorf("jitter below min speed counted: distance=%.2f fare=%d", trip.DistanceMeters, trip.FareTotal)
	}
	if trip.LastPosition == nil || trip.LastPosition.Latitude != metersNorth(300) {
		t.Errorf("last position must be updated regardless of charge")
	}
}

func TestWaitForfeitedOnMotion(t *testing.T) {
	m := occupied(t)
	m.Position(models.Position{SpeedMps: 0})
	for range 45 {
		m.WaitTick(1000)
	}

	m.Position(models.Position{SpeedMps: 10})
	m.WaitTick(1000)
	m.Position(models.Position{SpeedMps: 0})
	for range 45 {
		m.WaitTick(1000)
	}

	trip := m.Trip()
	if trip.ChargedWaitUnits != 0 {
		t.Errorf("wait progress must restart from zero after motion, units=%d", trip.ChargedWaitUnits)
	}
	if trip.WaitingMillis != 90_000 {
		t.Errorf("total stationary time = %d, want 90000", trip.WaitingMillis)
	}
}

func TestSpeedBoundary(t *testing.T) {
	tariff := testTariff()
	tariff.MinMovingSpeedKmh = 3.6
	m := New(staticTariffs{tariff: tariff})
	m.Activate()
	m.StartTrip(time.Now())

	// 1 m/s is exactly the minimum: distance accrues, wait does not
	m.Position(models.Position{SpeedMps: 1})
	m.Position(models.Position{SpeedMps: 1, Latitude: metersNorth(50)})
	m.WaitTick(60_000)

	trip := m.Trip()
	if trip.DistanceMeters == 0 {
		t.Errorf("distance must accrue at the minimum speed")
	}
	if trip.ChargedWaitUnits != 0 || trip.WaitingMillis != 0 {
		t.Errorf("wait must not accrue at the minimum speed")
	}
}

func TestSpeedAlert(t *testing.T) {
	m := occupied(t)

	m.Position(models.Position{SpeedMps: 130 / 3.6})
	if !m.Trip().SpeedAlertActive {
		t.Fatalf("expected alert above max speed")
	}

	m.Position(models.Position{SpeedMps: 100 / 3.6})
	if m.Trip().SpeedAlertActive {
		t.Errorf("alert must clear within one sample")
	}
}

func TestSpeedAlertDisabled(t *testing.T) {
	tariff := testTariff()
	tariff.MaxSpeedKmh = 0
	m := New(staticTariffs{tariff: tariff})
	m.Activate()
	m.StartTrip(time.Now())

	m.Position(models.Position{SpeedMps: 300 / 3.6})
	if m.Trip().SpeedAlertActive {
		t.Errorf("alert must stay off without a max speed")
	}
}

func TestInvalidPositionDropped(t *testing.T) {
	tests := []struct {
		name string
		p    models.Position
	}{
		{"negative speed", models.Position{SpeedMps: -1}},
		{"nan speed", models.Position{SpeedMps: math.NaN()}},
		{"nan latitude", models.Position{Latitude: math.NaN()}},
		{"infinite longitude", models.Position{Longitude: math.Inf(-1)}},
		{"latitude out of range", models.Position{Latitude: 95}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := occupied(t)
			good := models.Position{SpeedMps: 5, Latitude: 1, Longitude: 1}
			m.Position(good)
			before := m.Trip()

			res := m.Position(tt.p)
			if res.Outcome != types.OutcomeIgnored || !errors.Is(res.Err, types.ErrInvalidSample) {
				t.Fatalf("result = %+v, want ignored ErrInvalidSample", res)
			}
			after := m.Trip()
			if *after.LastPosition != *before.LastPosition || after.FareTotal != before.FareTotal || after.CurrentSpeedKmh != before.CurrentSpeedKmh {
				t.Errorf("invalid sample changed the trip")
			}
		})
	}
}

func TestEndTripFreezesSnapshot(t *testing.T) {
	m := occupied(t)
	m.Position(models.Position{SpeedMps: 10})
	m.Position(models.Position{SpeedMps: 10, Latitude: metersNorth(450)})

	m.EndTrip(time.Now())
	frozen := m.Trip()

	m.Position(models.Position{SpeedMps: 10, Latitude: metersNorth(5000)})
	m.WaitTick(120_000)

	_, trip := m.Acknowledge()
	if trip.FareTotal != frozen.FareTotal || trip.DistanceMeters != frozen.DistanceMeters || trip.WaitingMillis != frozen.WaitingMillis {
		t.Errorf("settled trip changed after end: frozen %+v got %+v", frozen, trip)
	}
}
