// Package recorder persists settled trips off the fare path.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/metrics"
)

const (
	serviceName  = "taximeter"
	saveAttempts = 3
	drainTimeout = 5 * time.Second
	defaultLimit = 50
	maxLimit     = 500
)

type job struct {
	ctx   context.Context
	trip  *models.Trip
	plate string
}

// Recorder queues settled trips and writes them from a single worker.
// Save never blocks: when the queue is full the trip is dropped and counted.
type Recorder struct {
	store     TripStore
	publisher TripPublisher
	vehicles  VehicleSource
	l         logger.Logger

	queue   chan job
	wg      sync.WaitGroup
	now     func() time.Time
	backoff time.Duration
}

// New creates a recorder. publisher may be nil.
func New(store TripStore, publisher TripPublisher, vehicles VehicleSource, queueSize int, l logger.Logger) *Recorder {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Recorder{
		store:     store,
		publisher: publisher,
		vehicles:  vehicles,
		l:         l,
		queue:     make(chan job, queueSize),
		now:       time.Now,
		backoff:   500 * time.Millisecond,
	}
}

// Start launches the worker. It stops after ctx is cancelled and the
// queued trips are flushed.
func (r *Recorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
}

// Wait blocks until the worker has stopped.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// Save queues trip for recording. The vehicle is read now, so a later
// edit does not change who the trip is attributed to.
func (r *Recorder) Save(ctx context.Context, trip *models.Trip) {
	if trip == nil {
		return
	}

	select {
	case r.queue <- job{ctx: ctx, trip: trip.Clone(), plate: r.vehicles.Current().Plate}:
	default:
		metrics.RecorderDroppedTotal.WithLabelValues(serviceName).Inc()
		r.l.Error(wrap.WithTripID(ctx, trip.ID.String()), "trip record dropped", types.ErrRecorderFull, "fare", trip.FareTotal)
	}
}

func (r *Recorder) QueryAggregates(ctx context.Context, tr models.TimeRange) (models.Aggregates, error) {
	const op = "Recorder.QueryAggregates"

	if !tr.Valid() {
		return models.Aggregates{}, fmt.Errorf("%s: %w", op, types.ErrInvalidRange)
	}

	agg, err := r.store.Aggregates(ctx, tr)
	if err != nil {
		return models.Aggregates{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return agg, nil
}

// Day returns the totals of the calendar day containing ts.
func (r *Recorder) Day(ctx context.Context, ts time.Time) (models.Aggregates, error) {
	return r.QueryAggregates(ctx, models.DayRange(ts))
}

// Month returns the totals of the calendar month containing ts.
func (r *Recorder) Month(ctx context.Context, ts time.Time) (models.Aggregates, error) {
	return r.QueryAggregates(ctx, models.MonthRange(ts))
}

// List returns the most recent trips inside tr, newest first.
func (r *Recorder) List(ctx context.Context, tr models.TimeRange, limit int) ([]models.TripRecord, error) {
	const op = "Recorder.List"

	if !tr.Valid() {
		return nil, fmt.Errorf("%s: %w", op, types.ErrInvalidRange)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	records, err := r.store.List(ctx, tr, limit)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return records, nil
}

func (r *Recorder) run(ctx context.Context) {
	for {
		select {
		case j := <-r.queue:
			r.persist(j)
		case <-ctx.Done():
			r.drain()
			return
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case j := <-r.queue:
			ctx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), drainTimeout)
			j.ctx = ctx
			r.persist(j)
			cancel()
		default:
			return
		}
	}
}

func (r *Recorder) persist(j job) {
	ctx := wrap.WithAction(wrap.WithTripID(j.ctx, j.trip.ID.String()), types.ActionTripRecorded)
	rec := models.NewTripRecord(j.trip, r.now())

	err := retry(ctx, saveAttempts, r.backoff, func() error {
		return r.store.Save(ctx, rec)
	})
	if err != nil {
		r.l.Error(wrap.ErrorCtx(ctx, err), "failed to record trip", err)
		return
	}
	r.l.Info(ctx, "trip recorded", "fare", rec.FareTotal, "distance_m", rec.DistanceMeters)

	if r.publisher == nil {
		return
	}

	msg := models.TripCompletedMessage{
		TripID:         rec.ID,
		VehiclePlate:   j.plate,
		Tariff:         rec.TariffName,
		StartedAt:      rec.StartedAt,
		EndedAt:        rec.EndedAt,
		DistanceMeters: rec.DistanceMeters,
		WaitingSeconds: rec.WaitingSeconds,
		FareTotal:      rec.FareTotal,
		Timestamp:      rec.RecordedAt,
		CorrelationID:  rec.ID.String(),
	}
	if err := r.publisher.PublishTripCompleted(ctx, msg); err != nil {
		r.l.Error(wrap.ErrorCtx(ctx, err), "failed to publish trip completed", err)
	}
}

func retry(ctx context.Context, n int, sleep time.Duration, fn func() error) error {
	var err error
	for i := range n {
		if err = fn(); err == nil {
			return nil
		}
		if i == n-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(sleep):
		}
	}
	return err
}
