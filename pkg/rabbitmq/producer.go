/**
 * @description
 * This package provides a small producer for publishing dashboard events to RabbitMQ.
 * It encapsulates connecting to the broker and publishing JSON messages to a topic
 * exchange. When no broker is configured the fallback producer is used instead.
 *
 * @dependencies
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 * - go.uber.org/zap: Structured logging.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/transfa/paypal-dashboard/internal/domain"
)

// PayoutBatchSubmittedRoutingKey is the routing key of accepted payout batches.
const PayoutBatchSubmittedRoutingKey = "payout.batch.submitted"

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   *zap.Logger
}

// EventProducerFallback is a no-op publisher used when RabbitMQ is not configured or
// unreachable at startup.
type EventProducerFallback struct {
	Logger *zap.Logger
}

func (p *EventProducerFallback) PublishPayoutBatchSubmitted(ctx context.Context, event domain.PayoutBatchSubmittedEvent) error {
	if p.Logger != nil {
		p.Logger.Debug("payout event publish skipped",
			zap.String("component", "rabbitmq_producer"),
			zap.String("mode", "fallback"),
			zap.String("sender_batch_id", event.SenderBatchID),
		)
	}
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer dials the broker and declares the durable topic exchange.
func NewEventProducer(amqpURL, exchange string, logger *zap.Logger) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Bounded dial timeout so startup does not hang on an unreachable broker.
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &EventProducer{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger.With(zap.String("component", "rabbitmq_producer")),
	}, nil
}

// Publish sends a JSON message to the producer's exchange with a routing key.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// A failed publish closes the channel; open a new one for the next message.
	if p.channel == nil || p.channel.IsClosed() {
		ch, err := p.conn.Channel()
		if err != nil {
			return err
		}
		p.channel = ch
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         jsonBody,
		},
	)
	if err != nil {
		p.logger.Warn("publish failed", zap.String("exchange", p.exchange), zap.String("routing_key", routingKey), zap.Error(err))
		return err
	}
	return nil
}

// PublishPayoutBatchSubmitted publishes an accepted payout batch.
func (p *EventProducer) PublishPayoutBatchSubmitted(ctx context.Context, event domain.PayoutBatchSubmittedEvent) error {
	return p.Publish(ctx, PayoutBatchSubmittedRoutingKey, event)
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
