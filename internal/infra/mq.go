// README: RabbitMQ connection for the receipt notifier fanout.
package infra

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const ReceiptsExchange = "receipts_fanout"

type MQ struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewMQ(url string) (*MQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(ReceiptsExchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &MQ{conn: conn, ch: ch}, nil
}

func (m *MQ) Close() {
	if m == nil {
		return
	}
	if m.ch != nil {
		_ = m.ch.Close()
	}
	if m.conn != nil {
		_ = m.conn.Close()
	}
}

// PublishPersistent publishes a durable JSON message to the given exchange.
func (m *MQ) PublishPersistent(ctx context.Context, exchange string, body []byte) error {
	return m.ch.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         body,
	})
}
