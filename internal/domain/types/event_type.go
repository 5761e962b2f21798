package types

// MeterEvent names an input of the meter state machine.
type MeterEvent string

func (e MeterEvent) String() string {
	return string(e)
}

const (
	EventActivate    MeterEvent = "ACTIVATE"
	EventDeactivate  MeterEvent = "DEACTIVATE"
	EventStartTrip   MeterEvent = "START_TRIP"
	EventEndTrip     MeterEvent = "END_TRIP"
	EventAcknowledge MeterEvent = "ACKNOWLEDGE"
	EventPosition    MeterEvent = "POSITION"
	EventWaitTick    MeterEvent = "WAIT_TICK"
)

// TripEvent is published on the broker when a trip changes lifecycle.
type TripEvent string

func (e TripEvent) String() string {
	return string(e)
}

const (
	TripEventStarted   TripEvent = "TRIP_STARTED"
	TripEventCompleted TripEvent = "TRIP_COMPLETED"
)
