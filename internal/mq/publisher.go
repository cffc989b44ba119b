// Package mq publishes booking notifications to a RabbitMQ topic exchange.
// Routing keys are the notification event names, e.g. "booking.confirmed".
package mq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kirinyoku/stayledger/internal/domain"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	const op = "mq.NewPublisher"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: dial rabbitmq: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: open channel: %w", op, err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: declare exchange: %w", op, err)
	}

	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any, msg amqp.Publishing) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	msg.ContentType = "application/json"
	msg.Body = b

	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
}

// Notify publishes n as a persistent message routed by its event name.
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) error {
	const op = "mq.Publisher.Notify"

	err := p.PublishJSON(ctx, string(n.Event), n, amqp.Publishing{
		MessageId:    n.BookingID.String() + ":" + string(n.Event),
		Timestamp:    n.At,
		DeliveryMode: amqp.Persistent,
		Type:         string(n.Event),
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
