package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"time"

	"campuslink/config"
)

// SMTPChannel sends through an authenticated SMTP relay (gmail by default).
type SMTPChannel struct {
	addr     string
	host     string
	from     string
	fromName string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPChannel(cfg config.NotifyConfig) *SMTPChannel {
	from := cfg.FromEmail
	if from == "" {
		from = cfg.SMTPUser
	}
	return &SMTPChannel{
		addr:     cfg.SMTPHost + ":" + cfg.SMTPPort,
		host:     cfg.SMTPHost,
		from:     from,
		fromName: cfg.FromName,
		auth:     smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost),
		sendMail: smtp.SendMail,
	}
}

// Send returns when the relay accepts the message or ctx is done. net/smtp has
// no context support, so a timed-out send keeps running in the background.
func (c *SMTPChannel) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	raw := c.buildMIME(msg, time.Now())

	done := make(chan error, 1)
	go func() { done <- c.sendMail(c.addr, c.auth, c.from, []string{msg.To}, raw) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", msg.To, ctx.Err())
	}
}

func (c *SMTPChannel) buildMIME(msg Message, now time.Time) []byte {
	var b bytes.Buffer
	from := c.from
	if c.fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", c.fromName), c.from)
	}
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return b.Bytes()
}
