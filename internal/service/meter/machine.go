// Package meter holds the taximeter state machine.
//
// Machine is not safe for concurrent use. The coordinator owns it and
// feeds it one event at a time.
package meter

import (
	"fmt"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/internal/service/fare"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

// TariffSource yields the tariff a new trip is priced with.
type TariffSource interface {
	Active() (models.Tariff, error)
}

// Result describes what an event did to the machine.
type Result struct {
	Event   types.MeterEvent
	Outcome types.Outcome
	From    types.MeterState
	To      types.MeterState
	// Reason explains an ignored event; empty when applied.
	Reason string
	// Err wraps ErrInvalidTransition or ErrInvalidSample for ignored events.
	Err error

	DistanceUnits int64
	WaitUnits     int64
}

// Applied reports whether the event changed the machine.
func (r Result) Applied() bool {
	return r.Outcome == types.OutcomeApplied
}

type Machine struct {
	state   types.MeterState
	trip    *models.Trip
	tariffs TariffSource
}

func New(tariffs TariffSource) *Machine {
	return &Machine{
		state:   types.StateIdle,
		tariffs: tariffs,
	}
}

func (m *Machine) State() types.MeterState {
	return m.state
}

// Trip returns a copy of the current trip, nil outside Occupied and Settling.
func (m *Machine) Trip() *models.Trip {
	return m.trip.Clone()
}

func (m *Machine) Activate() Result {
	res, ok := m.begin(types.EventActivate)
	if !ok {
		return res
	}
	return m.commit(res)
}

func (m *Machine) Deactivate() Result {
	res, ok := m.begin(types.EventDeactivate)
	if !ok {
		return res
	}
	return m.commit(res)
}

// StartTrip snapshots the active tariff into a fresh trip. An error is
// returned only when no tariff can be resolved; the machine stays Free.
func (m *Machine) StartTrip(now time.Time) (Result, error) {
	res, ok := m.begin(types.EventStartTrip)
	if !ok {
		return res, nil
	}

	tariff, err := m.tariffs.Active()
	if err != nil {
		return res, fmt.Errorf("meter.StartTrip: %w", err)
	}

	m.trip = fare.NewTrip(tariff, now)
	return m.commit(res), nil
}

// Position applies a GPS fix to the running trip: speed, speed alert and
// distance when moving at or above the tariff's minimum speed.
func (m *Machine) Position(p models.Position) Result {
	res, ok := m.begin(types.EventPosition)
	if !ok {
		return res
	}

	if err := validatePosition(p); err != nil {
		return m.ignore(res, err.Error(), err)
	}

	trip := m.trip
	speed := p.SpeedKmh()

	var delta float64
	if trip.LastPosition != nil {
		delta = fare.DistanceMeters(*trip.LastPosition, p)
	}

	if speed >= trip.Tariff.MinMovingSpeedKmh && delta > 0 {
		units, err := fare.ApplyDistance(trip, delta)
		if err != nil {
			return m.ignore(res, err.Error(), err)
		}
		res.DistanceUnits = units
	}

	trip.CurrentSpeedKmh = speed
	trip.SpeedAlertActive = trip.Tariff.SpeedAlertEnabled() && speed > trip.Tariff.MaxSpeedKmh
	trip.LastPosition = &p

	return m.commit(res)
}

// WaitTick accrues stationary time while below the minimum moving speed,
// otherwise forfeits the partial wait progress.
func (m *Machine) WaitTick(elapsedMs int64) Result {
	res, ok := m.begin(types.EventWaitTick)
	if !ok {
		return res
	}

	trip := m.trip
	if trip.CurrentSpeedKmh >= trip.Tariff.MinMovingSpeedKmh {
		fare.ResetWait(trip)
		return m.commit(res)
	}

	units, err := fare.ApplyWaitTick(trip, elapsedMs)
	if err != nil {
		return m.ignore(res, err.Error(), err)
	}
	res.WaitUnits = units

	return m.commit(res)
}

// EndTrip freezes the trip. Nothing mutates it until it is acknowledged.
func (m *Machine) EndTrip(now time.Time) Result {
	res, ok := m.begin(types.EventEndTrip)
	if !ok {
		return res
	}

	m.trip.EndedAt = now
	return m.commit(res)
}

// Acknowledge releases the settled trip and returns the frozen snapshot.
func (m *Machine) Acknowledge() (Result, *models.Trip) {
	res, ok := m.begin(types.EventAcknowledge)
	if !ok {
		return res, nil
	}

	trip := m.trip
	m.trip = nil
	return m.commit(res), trip
}

func (m *Machine) begin(e types.MeterEvent) (Result, bool) {
	res := Result{Event: e, From: m.state, To: m.state}

	next, ok := Next(m.state, e)
	if !ok {
		reason := fmt.Sprintf("%s not accepted in state %s", e, m.state)
		return m.ignore(res, reason, fmt.Errorf("%s: %w", reason, types.ErrInvalidTransition)), false
	}

	res.To = next
	return res, true
}

func (m *Machine) commit(res Result) Result {
	m.state = res.To
	res.Outcome = types.OutcomeApplied
	return res
}

func (m *Machine) ignore(res Result, reason string, err error) Result {
	res.To = res.From
	res.Outcome = types.OutcomeIgnored
	res.Reason = reason
	res.Err = err
	return res
}

func validatePosition(p models.Position) error {
	v := validator.New()
	v.Check(validator.Finite(p.SpeedMps) && p.SpeedMps >= 0, "speed_mps", "must be a non-negative number")
	v.Check(validator.Coordinates(p.Latitude, p.Longitude), "coordinates", "must be finite and within range")
	if v.Valid() {
		return nil
	}
	return fmt.Errorf("%v: %w", v.Errors, types.ErrInvalidSample)
}
