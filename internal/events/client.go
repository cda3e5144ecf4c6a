package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"flux/internal/logger"
)

const publishTimeout = 5 * time.Second

// Client owns one AMQP connection and channel bound to a durable direct
// exchange and queue.
type Client struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
}

// NewClient dials url and declares the exchange, the queue and their binding.
func NewClient(url, exchange, queue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{conn: conn, channel: channel, exchange: exchange, queue: queue}
	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return client, nil
}

// DialWithRetry calls NewClient until it succeeds, backing off exponentially
// between attempts, or until ctx is done.
func DialWithRetry(ctx context.Context, url, exchange, queue string) (*Client, error) {
	log := logger.Named("events")
	for attempt := 0; ; attempt++ {
		client, err := NewClient(url, exchange, queue)
		if err == nil {
			return client, nil
		}

		wait := exponentialBackoff(attempt)
		log.Warnw("AMQP connection failed, retrying", "attempt", attempt+1, "retry_in", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// exponentialBackoff doubles from one second and caps at thirty.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return 30 * time.Second
	}
	return time.Duration(1<<attempt) * time.Second
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// The queue name doubles as the routing key.
	if err := c.channel.QueueBind(c.queue, c.queue, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishRecalculate enqueues a recalculation request for userID.
func (c *Client) PublishRecalculate(ctx context.Context, userID string) error {
	body, err := NewRecalculateMessage(userID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchange, c.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	logger.Named("events").Debugw("recalculation requested", "user_id", userID, "queue", c.queue)
	return nil
}

// ConsumeRecalculate delivers messages to handler until ctx is done or the
// channel closes. Deliveries are acknowledged manually.
func (c *Client) ConsumeRecalculate(ctx context.Context, handler Handler) error {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	logger.Named("events").Infow("consuming recalculation requests", "queue", c.queue)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			handleDelivery(ctx, delivery.Body, delivery, handler)
		}
	}
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
