package rabbit

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	MeterExchange = "meter_topic"

	QueuePositions     = "meter_positions"
	QueueTripCompleted = "trip_completed"

	positionBindingKey = "position.*"
	tripBindingKey     = "trip.completed.*"
)

// declareTopology creates the exchange, queues and bindings the meter uses.
func declareTopology(ch *amqp.Channel) error {
	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}

	if err := ch.ExchangeDeclare(
		MeterExchange, // name
		"topic",       // type
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,           // args
	); err != nil {
		return fmt.Errorf("declare %s: %w", MeterExchange, err)
	}

	bindings := []struct {
		queue string
		key   string
	}{
		{QueuePositions, positionBindingKey},
		{QueueTripCompleted, tripBindingKey},
	}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.key, MeterExchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.queue, err)
		}
	}

	return nil
}
