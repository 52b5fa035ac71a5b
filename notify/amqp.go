package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// AMQPChannel hands messages to a mailer service over RabbitMQ instead of
// sending them itself.
type AMQPChannel struct {
	mu         sync.Mutex
	amqpURL    string
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

func NewAMQPChannel(amqpURL, exchange, routingKey string) (*AMQPChannel, error) {
	if amqpURL == "" {
		return nil, fmt.Errorf("AMQP_URL is required")
	}
	c := &AMQPChannel{amqpURL: amqpURL, exchange: exchange, routingKey: routingKey}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *AMQPChannel) connectLocked() error {
	conn, err := amqp.Dial(c.amqpURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(c.exchange, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", c.exchange, err)
	}
	c.conn, c.channel = conn, ch
	return nil
}

func (c *AMQPChannel) closeLocked() {
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *AMQPChannel) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON: %w", err)
	}
	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// reconnect only a connection that is already gone; a failed publish is not repeated
	if c.channel == nil || c.conn == nil || c.conn.IsClosed() {
		c.closeLocked()
		if err := c.connectLocked(); err != nil {
			return err
		}
	}
	if err := c.channel.Publish(c.exchange, c.routingKey, false, false, publishing); err != nil {
		c.closeLocked()
		return fmt.Errorf("publish to %s/%s: %w", c.exchange, c.routingKey, err)
	}
	return nil
}

func (c *AMQPChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}
