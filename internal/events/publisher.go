// Package events publishes domain events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const RoutingNotificationCreated = "notification.created"

// NotificationCreated is published after a notification is stored.
type NotificationCreated struct {
	NotificationID  string    `json:"notificationId"`
	RecipientID     string    `json:"recipientId"`
	SenderID        string    `json:"senderId"`
	Type            string    `json:"type"`
	FriendRequestID string    `json:"friendRequestId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Publisher publishes events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewPublisher builds a RabbitMQ publisher or a noop publisher when AMQP is disabled.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		logrus.Info("AMQP_URL not set, event publishing disabled")
		return NoopPublisher{}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		logrus.WithError(err).Warn("RabbitMQ unavailable, event publishing disabled")
		return NoopPublisher{}
	}

	ch, err := conn.Channel()
	if err != nil {
		logrus.WithError(err).Warn("RabbitMQ channel failed, event publishing disabled")
		_ = conn.Close()
		return NoopPublisher{}
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		logrus.WithError(err).Warn("RabbitMQ exchange declare failed, event publishing disabled")
		_ = ch.Close()
		_ = conn.Close()
		return NoopPublisher{}
	}

	logrus.WithField("exchange", exchange).Info("Connected to RabbitMQ")
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher drops events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	logrus.WithField("routingKey", routingKey).Debug("Event dropped, publisher disabled")
	return nil
}

func (NoopPublisher) Close() error { return nil }
