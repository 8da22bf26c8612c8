package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the part of *amqp.Channel the publisher uses.
// Satisfied by *amqp.Channel; narrow interface for testability.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes events to a durable topic exchange. The routing key is the
// event type, so consumers can bind "order.#" or a single change kind.
type AMQP struct {
	ch       AMQPChannel
	exchange string
	conn     *amqp.Connection
}

// DialAMQP connects to url, opens a channel and declares exchange.
func DialAMQP(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	a, err := NewAMQP(ch, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	a.conn = conn
	return a, nil
}

// NewAMQP declares exchange on ch and wraps it.
func NewAMQP(ch AMQPChannel, exchange string) (*AMQP, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQP{ch: ch, exchange: exchange}, nil
}

func (a *AMQP) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = a.ch.PublishWithContext(ctx, a.exchange, e.Type, false, false, amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		CorrelationId: e.OrderID,
		Timestamp:     time.Now().UTC(),
		Body:          body,
		Headers:       amqp.Table{"x-source": "foodcourt-api"},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Close closes the channel and, when dialed, the connection.
func (a *AMQP) Close() error {
	err := a.ch.Close()
	if a.conn != nil {
		if cerr := a.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
