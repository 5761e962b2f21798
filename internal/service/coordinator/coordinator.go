// Package coordinator serializes every meter input onto one event queue.
//
// Run is the only goroutine that touches the state machine. The clock, the
// wait ticker and the alert blinker run as producers next to it; positions
// and operator commands are enqueued by callers. Events are applied in
// arrival order.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/internal/service/fare"
	"github.com/Temutjin2k/taximeter/internal/service/meter"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/metrics"
)

const serviceName = "taximeter"

type Config struct {
	ClockInterval    time.Duration
	WaitTickInterval time.Duration
	BlinkInterval    time.Duration
	QueueSize        int
	Vehicles         VehicleSource
}

type Coordinator struct {
	cfg      Config
	machine  *meter.Machine
	tariffs  TariffRegistry
	sink     Sink
	recorder Recorder
	l        logger.Logger

	now       func() time.Time
	newTicker tickerFunc

	events  chan event
	done    chan struct{}
	running atomic.Bool

	// owned by the Run goroutine
	runCtx       context.Context
	clock        time.Time
	alertVisible bool
	waitGen      uint64
	stopWait     func()
	blinkGen     uint64
	stopBlink    func()
}

func New(cfg Config, tariffs TariffRegistry, sink Sink, recorder Recorder, l logger.Logger) *Coordinator {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &Coordinator{
		cfg:       cfg,
		machine:   meter.New(tariffs),
		tariffs:   tariffs,
		sink:      sink,
		recorder:  recorder,
		l:         l,
		now:       time.Now,
		newTicker: realTicker,
		events:    make(chan event, cfg.QueueSize),
		done:      make(chan struct{}),
	}
}

// Run consumes the event queue until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("coordinator is already running")
	}
	defer close(c.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.runCtx = ctx
	c.clock = c.now()
	metrics.SetMeterState(serviceName, c.machine.State().String(), stateNames()...)

	go c.produceTicks(ctx, c.cfg.ClockInterval, evClock, 0)
	c.publish()

	c.l.Info(ctx, "meter coordinator started")
	for {
		select {
		case <-ctx.Done():
			c.cancelWait()
			c.cancelBlink()
			c.l.Info(context.WithoutCancel(ctx), "meter coordinator stopped")
			return nil
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// SubmitPosition enqueues a GPS fix. It blocks only while the queue is full.
func (c *Coordinator) SubmitPosition(ctx context.Context, p models.Position) error {
	if !c.enqueue(ctx, event{kind: evPosition, ctx: ctx, position: p}) {
		return c.stopErr(ctx)
	}
	return nil
}

func (c *Coordinator) Activate(ctx context.Context) (meter.Result, error) {
	r, err := c.call(ctx, event{kind: evActivate})
	if err != nil {
		return meter.Result{}, err
	}
	return r.result, r.err
}

func (c *Coordinator) Deactivate(ctx context.Context) (meter.Result, error) {
	r, err := c.call(ctx, event{kind: evDeactivate})
	if err != nil {
		return meter.Result{}, err
	}
	return r.result, r.err
}

// StartTrip opens a trip priced with the active tariff.
func (c *Coordinator) StartTrip(ctx context.Context) (*models.Trip, error) {
	r, err := c.call(ctx, event{kind: evStartTrip})
	if err != nil {
		return nil, err
	}
	return r.trip, r.err
}

// EndTrip freezes the running trip and returns the frozen snapshot.
func (c *Coordinator) EndTrip(ctx context.Context) (*models.Trip, error) {
	r, err := c.call(ctx, event{kind: evEndTrip})
	if err != nil {
		return nil, err
	}
	return r.trip, r.err
}

// Acknowledge hands the settled trip to the recorder and frees the meter.
func (c *Coordinator) Acknowledge(ctx context.Context) (*models.Trip, error) {
	r, err := c.call(ctx, event{kind: evAcknowledge})
	if err != nil {
		return nil, err
	}
	return r.trip, r.err
}

// ActivateTariff switches the active tariff while no trip is open.
func (c *Coordinator) ActivateTariff(ctx context.Context, name string) error {
	r, err := c.call(ctx, event{kind: evActivateTariff, tariff: name})
	if err != nil {
		return err
	}
	return r.err
}

// Snapshot returns the current display and a copy of the trip, if any.
func (c *Coordinator) Snapshot(ctx context.Context) (models.Display, *models.Trip, error) {
	r, err := c.call(ctx, event{kind: evSnapshot})
	if err != nil {
		return models.Display{}, nil, err
	}
	return r.display, r.trip, nil
}

// Receipt renders the settled trip. It fails with ErrNoReceipt outside Settling.
func (c *Coordinator) Receipt(ctx context.Context) (models.Receipt, error) {
	r, err := c.call(ctx, event{kind: evReceipt})
	if err != nil {
		return models.Receipt{}, err
	}
	if r.err != nil {
		return models.Receipt{}, r.err
	}
	return *r.receipt, nil
}

func (c *Coordinator) call(ctx context.Context, ev event) (reply, error) {
	ev.ctx = ctx
	ev.reply = make(chan reply, 1)

	if !c.enqueue(ctx, ev) {
		return reply{}, c.stopErr(ctx)
	}

	select {
	case r := <-ev.reply:
		return r, nil
	case <-ctx.Done():
		return reply{}, ctx.Err()
	case <-c.done:
		return reply{}, types.ErrCoordinatorOff
	}
}

func (c *Coordinator) enqueue(ctx context.Context, ev event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	}
}

func (c *Coordinator) stopErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return types.ErrCoordinatorOff
}

// produceTicks feeds ticks of one kind into the queue until ctx ends.
// Wait ticks carry the measured time since the previous tick.
func (c *Coordinator) produceTicks(ctx context.Context, d time.Duration, kind eventKind, gen uint64) {
	ch, stop := c.newTicker(d)
	c.runTicks(ctx, ch, stop, kind, gen, c.now())
}

func (c *Coordinator) runTicks(ctx context.Context, ch <-chan time.Time, stop func(), kind eventKind, gen uint64, start time.Time) {
	defer stop()

	var sentMs int64
	for {
		select {
		case <-ctx.Done():
			return
		case at := <-ch:
			ev := event{kind: kind, ctx: ctx, at: at, gen: gen}
			if kind == evWaitTick {
				total := at.Sub(start).Milliseconds()
				ev.elapsedMs = max(total-sentMs, 0)
				sentMs += ev.elapsedMs
			}
			if !c.enqueue(ctx, ev) {
				return
			}
		}
	}
}

func (c *Coordinator) startTicker(d time.Duration, kind eventKind, gen uint64) func() {
	ctx, cancel := context.WithCancel(c.runCtx)
	// the ticker is created here so it exists before the next event is handled
	ch, stop := c.newTicker(d)
	go c.runTicks(ctx, ch, stop, kind, gen, c.now())
	return cancel
}

func (c *Coordinator) startWait() {
	c.cancelWait()
	c.waitGen++
	c.stopWait = c.startTicker(c.cfg.WaitTickInterval, evWaitTick, c.waitGen)
}

func (c *Coordinator) cancelWait() {
	if c.stopWait != nil {
		c.stopWait()
		c.stopWait = nil
	}
	// invalidates ticks that are already queued
	c.waitGen++
}

func (c *Coordinator) startBlink() {
	if c.stopBlink != nil {
		return
	}
	c.blinkGen++
	c.alertVisible = true
	c.stopBlink = c.startTicker(c.cfg.BlinkInterval, evBlink, c.blinkGen)
}

func (c *Coordinator) cancelBlink() {
	if c.stopBlink != nil {
		c.stopBlink()
		c.stopBlink = nil
	}
	c.blinkGen++
	c.alertVisible = false
}

func (c *Coordinator) handle(ev event) {
	ctx := ev.ctx
	if ctx == nil {
		ctx = c.runCtx
	}

	switch ev.kind {
	case evClock:
		c.clock = ev.at
		c.publish()

	case evBlink:
		if ev.gen != c.blinkGen {
			return
		}
		c.alertVisible = !c.alertVisible
		c.publish()

	case evWaitTick:
		if ev.gen != c.waitGen {
			return
		}
		res := c.machine.WaitTick(ev.elapsedMs)
		c.observe(ctx, res)
		if res.Applied() {
			metrics.RecordFareUnits(serviceName, string(types.ChargeWait), res.WaitUnits)
			c.publish()
		}

	case evPosition:
		c.handlePosition(ctx, ev.position)

	case evActivate:
		res := c.machine.Activate()
		c.observe(ctx, res)
		if res.Applied() {
			c.l.Info(wrap.WithAction(ctx, types.ActionMeterActivated), "meter activated")
			c.publish()
		}
		ev.reply <- reply{result: res, err: res.Err}

	case evDeactivate:
		res := c.machine.Deactivate()
		c.observe(ctx, res)
		if res.Applied() {
			c.l.Info(wrap.WithAction(ctx, types.ActionMeterDeactivated), "meter deactivated")
			c.publish()
		}
		ev.reply <- reply{result: res, err: res.Err}

	case evStartTrip:
		c.handleStartTrip(ctx, ev)

	case evEndTrip:
		res := c.machine.EndTrip(c.now())
		c.observe(ctx, res)
		var trip *models.Trip
		if res.Applied() {
			c.cancelWait()
			c.cancelBlink()
			trip = c.machine.Trip()
			c.l.Info(wrap.WithTripID(wrap.WithAction(ctx, types.ActionTripEnded), trip.ID.String()), "trip ended",
				"fare", trip.FareTotal, "distance_m", trip.DistanceMeters, "waiting_ms", trip.WaitingMillis)
			c.publish()
		}
		ev.reply <- reply{result: res, trip: trip, err: res.Err}

	case evAcknowledge:
		res, trip := c.machine.Acknowledge()
		c.observe(ctx, res)
		if res.Applied() {
			ctx = wrap.WithTripID(wrap.WithAction(ctx, types.ActionTripAcknowledged), trip.ID.String())
			c.recorder.Save(context.WithoutCancel(ctx), trip)
			metrics.RecordTripCompleted(serviceName, trip.Tariff.Name, trip.FareTotal)
			c.l.Info(ctx, "trip acknowledged", "fare", trip.FareTotal)
			c.publish()
			trip = trip.Clone()
		}
		ev.reply <- reply{result: res, trip: trip, err: res.Err}

	case evActivateTariff:
		var err error
		switch st := c.machine.State(); st {
		case types.StateIdle, types.StateFree:
			err = c.tariffs.Activate(ctx, ev.tariff)
		default:
			err = fmt.Errorf("state %s: %w", st, types.ErrTariffLocked)
		}
		if err == nil {
			c.publish()
		}
		ev.reply <- reply{err: err}

	case evSnapshot:
		ev.reply <- reply{display: c.display(), trip: c.machine.Trip()}

	case evReceipt:
		if c.machine.State() != types.StateSettling {
			ev.reply <- reply{err: types.ErrNoReceipt}
			return
		}
		r := fare.Receipt(c.machine.Trip(), c.cfg.Vehicles.Current(), c.now())
		ev.reply <- reply{receipt: &r}
	}
}

func (c *Coordinator) handleStartTrip(ctx context.Context, ev event) {
	res, err := c.machine.StartTrip(c.now())
	c.observe(ctx, res)
	if err != nil {
		c.l.Error(ctx, "failed to start trip", err)
		ev.reply <- reply{result: res, err: err}
		return
	}
	if !res.Applied() {
		ev.reply <- reply{result: res, err: res.Err}
		return
	}

	trip := c.machine.Trip()
	c.startWait()
	c.l.Info(wrap.WithTripID(wrap.WithAction(ctx, types.ActionTripStarted), trip.ID.String()), "trip started",
		"tariff", trip.Tariff.Name, "flag_drop", trip.Tariff.FlagDrop)
	c.publish()
	ev.reply <- reply{result: res, trip: trip}
}

func (c *Coordinator) handlePosition(ctx context.Context, p models.Position) {
	res := c.machine.Position(p)
	c.observe(ctx, res)

	if !res.Applied() {
		reason := "state"
		if errors.Is(res.Err, types.ErrInvalidSample) {
			reason = "invalid"
			c.l.Warn(wrap.WithAction(ctx, types.ActionPositionDropped), "invalid position sample dropped", "reason", res.Reason)
		}
		metrics.PositionSamplesDropped.WithLabelValues(serviceName, reason).Inc()
		return
	}

	metrics.RecordFareUnits(serviceName, string(types.ChargeDistance), res.DistanceUnits)

	if c.machine.Trip().SpeedAlertActive {
		c.startBlink()
	} else {
		c.cancelBlink()
	}
	c.publish()
}

func (c *Coordinator) observe(ctx context.Context, res meter.Result) {
	metrics.RecordMeterEvent(serviceName, res.Event.String(), string(res.Outcome))
	if res.Applied() {
		if res.From != res.To {
			metrics.SetMeterState(serviceName, res.To.String(), stateNames()...)
		}
		return
	}
	c.l.Debug(wrap.WithAction(ctx, types.ActionEventIgnored), "meter event ignored",
		"event", res.Event.String(), "state", res.From.String(), "reason", res.Reason)
}

func (c *Coordinator) display() models.Display {
	d := models.Display{
		State:        c.machine.State(),
		AlertVisible: c.alertVisible,
		Clock:        c.clock,
	}

	if trip := c.machine.Trip(); trip != nil {
		d.FareTotal = trip.FareTotal
		d.SpeedKmh = trip.CurrentSpeedKmh
		d.WaitingSeconds = trip.WaitingMillis / 1000
		d.DistanceMeters = trip.DistanceMeters
		d.Tariff = trip.Tariff.Name
		return d
	}

	if t, err := c.tariffs.Active(); err == nil {
		d.Tariff = t.Name
	}
	return d
}

func (c *Coordinator) publish() {
	c.sink.Publish(c.display())
}

func stateNames() []string {
	names := make([]string, 0, len(meter.AllStates))
	for _, s := range meter.AllStates {
		names = append(names, s.String())
	}
	return names
}
