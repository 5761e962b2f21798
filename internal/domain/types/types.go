package types

// MeterState is the operational state of the taximeter.
type MeterState string

func (s MeterState) String() string {
	return string(s)
}

// Idle - meter switched off
// Free - meter on, vehicle available
// Occupied - trip in progress, fare accruing
// Settling - trip finished, fare frozen until acknowledged
const (
	StateIdle     MeterState = "IDLE"
	StateFree     MeterState = "FREE"
	StateOccupied MeterState = "OCCUPIED"
	StateSettling MeterState = "SETTLING"
)

// Outcome of feeding an event into the meter state machine.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
)

// ChargeKind tells which meter dimension produced a fare unit.
type ChargeKind string

const (
	ChargeDistance ChargeKind = "distance"
	ChargeWait     ChargeKind = "wait"
)

// Operator role carried in bearer tokens for the control API.
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RoleOperator UserRole = "OPERATOR"
	RoleViewer   UserRole = "VIEWER"
)
