package meter

import "github.com/Temutjin2k/taximeter/internal/domain/types"

// Transitions is the meter state diagram as code. Any (state, event) pair
// missing here is ignored by the machine.
var Transitions = map[types.MeterState]map[types.MeterEvent]types.MeterState{
	types.StateIdle: {
		types.EventActivate: types.StateFree,
	},
	types.StateFree: {
		types.EventDeactivate: types.StateIdle,
		types.EventStartTrip:  types.StateOccupied,
	},
	types.StateOccupied: {
		types.EventPosition: types.StateOccupied,
		types.EventWaitTick: types.StateOccupied,
		types.EventEndTrip:  types.StateSettling,
	},
	types.StateSettling: {
		types.EventAcknowledge: types.StateFree,
	},
}

// AllStates lists every meter state.
var AllStates = []types.MeterState{
	types.StateIdle,
	types.StateFree,
	types.StateOccupied,
	types.StateSettling,
}

// Next returns the state reached from `from` on event e.
func Next(from types.MeterState, e types.MeterEvent) (types.MeterState, bool) {
	next, ok := Transitions[from][e]
	return next, ok
}
