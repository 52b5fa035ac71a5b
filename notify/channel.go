// Package notify delivers email-like messages through a configured driver.
package notify

import (
	"context"
	"errors"
	"fmt"

	"campuslink/config"

	"go.uber.org/zap"
)

// Message is one email to one recipient.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Channel sends a message. Delivery is best effort.
type Channel interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipient = errors.New("notify: empty recipient")

// New picks a driver from cfg.Driver. The returned close func releases any
// connection the driver holds.
func New(cfg config.NotifyConfig, log *zap.Logger) (Channel, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case "", "log":
		return NewLogChannel(log), noop, nil
	case "smtp":
		if cfg.SMTPUser == "" || cfg.SMTPPass == "" {
			return nil, nil, fmt.Errorf("notify smtp: EMAIL_USER and EMAIL_PASS are required")
		}
		return NewSMTPChannel(cfg), noop, nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, nil, fmt.Errorf("notify sendgrid: SENDGRID_API_KEY is required")
		}
		return NewSendGridChannel(cfg), noop, nil
	case "amqp":
		ch, err := NewAMQPChannel(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			return nil, nil, fmt.Errorf("notify amqp: %w", err)
		}
		return ch, ch.Close, nil
	default:
		return nil, nil, fmt.Errorf("notify: unknown driver %q", cfg.Driver)
	}
}

// LogChannel only logs. Used in development when no mail provider is set up.
type LogChannel struct{ log *zap.Logger }

func NewLogChannel(log *zap.Logger) *LogChannel {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogChannel{log: log}
}

func (c *LogChannel) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	c.log.Info("email (log driver)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTML)))
	return ctx.Err()
}
