// Package notifier is the realtime pub/sub edge. It is a best-effort
// delivery accelerant only; the notifications table is the store of
// record.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// EventsExchange carries realtime events, routed by channel name.
	EventsExchange = "nilestore.events"

	// ChannelBroadcast feeds the broadcast fan-out worker.
	ChannelBroadcast = "notifications.broadcast"
	// ChannelUser prefixes per-user realtime notification events.
	ChannelUser = "notifications.user"
	// ChannelTicket prefixes realtime support-chat events.
	ChannelTicket = "tickets"
)

type Publisher interface {
	Publish(ctx context.Context, channel string, event any) error
}

type amqpPublisher struct {
	ch *amqp.Channel
}

func NewAMQPPublisher(ch *amqp.Channel) Publisher {
	return &amqpPublisher{ch: ch}
}

// Setup declares the events exchange and the durable broadcast queue
// with its dead-letter pair.
func Setup(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare events exchange: %w", err)
	}

	dlx := EventsExchange + ".dlx"
	dlq := ChannelBroadcast + ".dlq"
	if err := ch.ExchangeDeclare(dlx, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlq, ChannelBroadcast, dlx, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}

	if _, err := ch.QueueDeclare(ChannelBroadcast, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlx,
		"x-dead-letter-routing-key": ChannelBroadcast,
	}); err != nil {
		return fmt.Errorf("declare broadcast queue: %w", err)
	}
	if err := ch.QueueBind(ChannelBroadcast, ChannelBroadcast, EventsExchange, false, nil); err != nil {
		return fmt.Errorf("bind broadcast queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (p *amqpPublisher) Publish(ctx context.Context, channel string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, EventsExchange, channel, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}
