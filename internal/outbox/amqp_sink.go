package outbox

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPSink publishes outbox payloads to RabbitMQ, one durable queue per
// topic.
type AMQPSink struct {
	ch *amqp.Channel
}

// NewAMQPSink opens a channel and declares the queues so publish never
// fails on missing infra.
func NewAMQPSink(conn *amqp.Connection, topics ...string) (*AMQPSink, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	for _, topic := range topics {
		if _, err := ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", topic, err)
		}
	}

	return &AMQPSink{ch: ch}, nil
}

func (s *AMQPSink) Close() error {
	return s.ch.Close()
}

func (s *AMQPSink) Deliver(ctx context.Context, topic string, payload []byte) error {
	return s.ch.PublishWithContext(ctx, "", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
}
