package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"campuslink/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewPicksDriver(t *testing.T) {
	ch, closeFn, err := New(config.NotifyConfig{Driver: "log"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogChannel{}, ch)
	assert.NoError(t, closeFn())

	_, _, err = New(config.NotifyConfig{Driver: "smtp"}, zap.NewNop())
	assert.Error(t, err)

	ch, _, err = New(config.NotifyConfig{Driver: "smtp", SMTPUser: "u", SMTPPass: "p", SMTPHost: "smtp.example.edu", SMTPPort: "587"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SMTPChannel{}, ch)

	_, _, err = New(config.NotifyConfig{Driver: "sendgrid"}, zap.NewNop())
	assert.Error(t, err)

	ch, _, err = New(config.NotifyConfig{Driver: "sendgrid", SendGridAPIKey: "SG.x"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SendGridChannel{}, ch)

	_, _, err = New(config.NotifyConfig{Driver: "amqp"}, zap.NewNop())
	assert.Error(t, err)

	_, _, err = New(config.NotifyConfig{Driver: "pigeon"}, zap.NewNop())
	assert.Error(t, err)
}

func TestLogChannel(t *testing.T) {
	ch := NewLogChannel(nil)
	assert.NoError(t, ch.Send(context.Background(), Message{To: "a@sece.ac.in", Subject: "hi"}))
	assert.ErrorIs(t, ch.Send(context.Background(), Message{}), ErrNoRecipient)
}

func smtpChannel() *SMTPChannel {
	return NewSMTPChannel(config.NotifyConfig{
		FromName: "CampusLink", FromEmail: "noreply@sece.ac.in",
		SMTPHost: "smtp.example.edu", SMTPPort: "587", SMTPUser: "u", SMTPPass: "p",
	})
}

func TestSMTPChannelBuildMIME(t *testing.T) {
	c := smtpChannel()
	raw := string(c.buildMIME(Message{To: "sam@sece.ac.in", Subject: "Match found", HTML: "<p>hello</p>"}, time.Unix(0, 0)))

	headers, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, headers, "From: CampusLink <noreply@sece.ac.in>")
	assert.Contains(t, headers, "To: sam@sece.ac.in")
	assert.Contains(t, headers, "Subject: Match found")
	assert.Contains(t, headers, "Content-Type: text/html")
	assert.Equal(t, "<p>hello</p>", body)
}

func TestSMTPChannelSend(t *testing.T) {
	c := smtpChannel()
	var gotAddr string
	var gotTo []string
	c.sendMail = func(addr string, _ smtp.Auth, _ string, to []string, _ []byte) error {
		gotAddr, gotTo = addr, to
		return nil
	}
	require.NoError(t, c.Send(context.Background(), Message{To: "sam@sece.ac.in", Subject: "s", HTML: "b"}))
	assert.Equal(t, "smtp.example.edu:587", gotAddr)
	assert.Equal(t, []string{"sam@sece.ac.in"}, gotTo)

	c.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("535 auth failed") }
	assert.ErrorContains(t, c.Send(context.Background(), Message{To: "sam@sece.ac.in"}), "535")
}

func TestSMTPChannelSendHonoursContext(t *testing.T) {
	c := smtpChannel()
	release := make(chan struct{})
	defer close(release)
	c.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Send(ctx, Message{To: "sam@sece.ac.in"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendGridBuildMail(t *testing.T) {
	c := NewSendGridChannel(config.NotifyConfig{SendGridAPIKey: "SG.x", FromName: "CampusLink", FromEmail: "noreply@sece.ac.in"})
	m := c.buildMail(Message{To: "sam@sece.ac.in", Subject: "Match", HTML: "<b>x</b>"})

	assert.Equal(t, "Match", m.Subject)
	assert.Equal(t, "noreply@sece.ac.in", m.From.Address)
	require.Len(t, m.Personalizations, 1)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "sam@sece.ac.in", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/html", m.Content[0].Type)
	assert.Equal(t, "<b>x</b>", m.Content[0].Value)
}
