package coordinator

import (
	"context"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/service/meter"
)

type eventKind int

const (
	evClock eventKind = iota
	evWaitTick
	evBlink
	evPosition
	evActivate
	evDeactivate
	evStartTrip
	evEndTrip
	evAcknowledge
	evActivateTariff
	evSnapshot
	evReceipt
)

func (k eventKind) String() string {
	switch k {
	case evClock:
		return "clock"
	case evWaitTick:
		return "wait_tick"
	case evBlink:
		return "blink"
	case evPosition:
		return "position"
	case evActivate:
		return "activate"
	case evDeactivate:
		return "deactivate"
	case evStartTrip:
		return "start_trip"
	case evEndTrip:
		return "end_trip"
	case evAcknowledge:
		return "acknowledge"
	case evActivateTariff:
		return "activate_tariff"
	case evSnapshot:
		return "snapshot"
	case evReceipt:
		return "receipt"
	default:
		return "unknown"
	}
}

type event struct {
	kind eventKind
	ctx  context.Context

	at        time.Time
	elapsedMs int64
	// gen ties ticker events to the ticker that produced them; stale
	// generations are dropped.
	gen uint64

	position models.Position
	tariff   string

	reply chan reply
}

type reply struct {
	result  meter.Result
	display models.Display
	trip    *models.Trip
	receipt *models.Receipt
	err     error
}

// tickerFunc returns a tick channel and its stop function.
type tickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
