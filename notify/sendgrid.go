package notify

import (
	"context"
	"fmt"

	"campuslink/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridChannel struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func NewSendGridChannel(cfg config.NotifyConfig) *SendGridChannel {
	return &SendGridChannel{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}
}

func (c *SendGridChannel) buildMail(msg Message) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(c.fromName, c.fromEmail))
	message.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.To, msg.To))
	message.AddPersonalizations(p)

	message.AddContent(mail.NewContent("text/html", msg.HTML))
	return message
}

func (c *SendGridChannel) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	response, err := c.client.SendWithContext(ctx, c.buildMail(msg))
	if err != nil {
		return err
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
