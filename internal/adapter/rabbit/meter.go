package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/metrics"
	"github.com/Temutjin2k/taximeter/pkg/rabbit"
	amqp "github.com/rabbitmq/amqp091-go"
)

const serviceName = "taximeter"

// PositionHandler receives decoded GPS fixes in delivery order.
type PositionHandler func(ctx context.Context, p models.Position) error

// VehicleSource returns the vehicle the meter is currently installed in.
type VehicleSource interface {
	Current() models.Vehicle
}

type MeterBroker struct {
	client   *rabbit.RabbitMQ
	vehicles VehicleSource
	l        logger.Logger
}

func NewMeterBroker(client *rabbit.RabbitMQ, vehicles VehicleSource, l logger.Logger) *MeterBroker {
	return &MeterBroker{
		client:   client,
		vehicles: vehicles,
		l:        l,
	}
}

// Setup declares the broker topology.
func (b *MeterBroker) Setup(ctx context.Context) error {
	if err := b.client.EnsureConnection(ctx); err != nil {
		return err
	}
	return declareTopology(b.client.Channel)
}

// PublishTripCompleted sends the summary of an acknowledged trip to
// 'meter_topic' with key 'trip.completed.{plate}'.
func (b *MeterBroker) PublishTripCompleted(ctx context.Context, msg models.TripCompletedMessage) error {
	const op = "MeterBroker.PublishTripCompleted"
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_trip_completed")

	body, err := json.Marshal(msg)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: failed to marshal message: %w", op, err))
	}

	key := fmt.Sprintf("trip.completed.%s", routingPart(msg.VehiclePlate))

	err = retry(3, time.Second, func() error {
		if err := b.client.EnsureConnection(ctx); err != nil {
			return err
		}
		return b.client.Channel.PublishWithContext(
			ctx,
			MeterExchange, // exchange
			key,           // routing key
			false,         // mandatory
			false,         // immediate
			amqp.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp.Persistent,
				CorrelationId: msg.CorrelationID,
				Body:          body,
				Timestamp:     time.Now(),
			},
		)
	})
	metrics.RecordRabbitMQPublish(serviceName, QueueTripCompleted, err)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: failed to publish: %w", op, err))
	}

	return nil
}

// ConsumePositions feeds the position queue into fn until ctx is done.
// Deliveries are handled one at a time so fixes keep their order.
func (b *MeterBroker) ConsumePositions(ctx context.Context, fn PositionHandler) error {
	const op = "MeterBroker.ConsumePositions"
	ctx = wrap.WithAction(ctx, "consume_positions")

	for {
		if ctx.Err() != nil {
			b.l.Debug(ctx, "position consumer stopped by context")
			return nil
		}

		if err := b.client.EnsureConnection(ctx); err != nil {
			b.l.Error(ctx, "ensure connection failed", err, "op", op)
			sleepCtx(ctx, 2*time.Second)
			continue
		}

		if err := declareTopology(b.client.Channel); err != nil {
			b.l.Error(ctx, "declare topology failed", err, "op", op)
			sleepCtx(ctx, 3*time.Second)
			continue
		}

		if err := b.client.Channel.Qos(1, 0, false); err != nil {
			b.l.Error(ctx, "set qos failed", err, "op", op)
			sleepCtx(ctx, 2*time.Second)
			continue
		}

		msgs, err := b.client.Channel.Consume(QueuePositions, "", false, false, false, false, nil)
		if err != nil {
			b.l.Error(ctx, "consume failed", err, "op", op)
			sleepCtx(ctx, 2*time.Second)
			continue
		}

		b.l.Info(ctx, "start consuming positions", "queue", QueuePositions)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				b.l.Info(ctx, "position consumer shutting down", "op", op)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					b.l.Warn(ctx, "message channel closed, reconnecting...", "op", op)
					sleepCtx(ctx, 2*time.Second)
					break consumeLoop
				}
				b.handlePosition(ctx, fn, msg)
			}
		}
	}
}

func (b *MeterBroker) handlePosition(ctx context.Context, fn PositionHandler, msg amqp.Delivery) {
	const op = "MeterBroker.handlePosition"

	var pm models.PositionMessage
	if err := json.Unmarshal(msg.Body, &pm); err != nil {
		metrics.RecordRabbitMQConsume(serviceName, QueuePositions, err)
		b.l.Error(ctx, "decode failed", err, "op", op)
		_ = msg.Nack(false, false)
		return
	}

	plate := b.vehicles.Current().Plate
	if pm.VehiclePlate != "" && plate != "" && pm.VehiclePlate != plate {
		b.l.Debug(ctx, "position for another vehicle skipped", "plate", pm.VehiclePlate)
		_ = msg.Ack(false)
		return
	}

	err := fn(ctx, pm.Position())
	metrics.RecordRabbitMQConsume(serviceName, QueuePositions, err)
	if err != nil {
		if isRecoverableError(err) {
			b.l.Warn(ctx, "position requeued", "reason", err.Error())
			_ = msg.Nack(false, true)
			return
		}
		b.l.Error(ctx, "handler failed", err, "op", op)
		_ = msg.Nack(false, false)
		return
	}

	if err := msg.Ack(false); err != nil {
		b.l.Warn(ctx, "ack failed", "error", err.Error(), "op", op)
	}
}

// routingPart makes a plate safe to use as a topic word.
func routingPart(plate string) string {
	if plate == "" {
		return "unknown"
	}
	out := []rune(plate)
	for i, r := range out {
		if r == '.' || r == '*' || r == '#' || r == ' ' {
			out[i] = '_'
		}
	}
	return string(out)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
