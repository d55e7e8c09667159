package notification

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

// ErrNoAddress is returned by a channel when the recipient has no address on it.
var ErrNoAddress = errors.New("recipient has no address for this channel")

type Contact struct {
	Name  string
	Email string
	Phone string
}

type Message struct {
	To      Contact
	Subject string
	Body    string
}

type Channel interface {
	Name() string
	Send(ctx context.Context, message Message) error
}

// EmailChannel writes outgoing mail to the log. No mail server is contacted.
type EmailChannel struct{}

func (EmailChannel) Name() string {
	return "email"
}

func (EmailChannel) Send(ctx context.Context, message Message) error {
	if message.To.Email == "" {
		return ErrNoAddress
	}
	log.WithFields(log.Fields{
		"channel": "email",
		"to":      message.To.Email,
		"subject": message.Subject,
	}).Info(message.Body)
	return nil
}

// SmsChannel writes outgoing text messages to the log.
type SmsChannel struct{}

func (SmsChannel) Name() string {
	return "sms"
}

func (SmsChannel) Send(ctx context.Context, message Message) error {
	if message.To.Phone == "" {
		return ErrNoAddress
	}
	log.WithFields(log.Fields{
		"channel": "sms",
		"to":      message.To.Phone,
	}).Info(message.Subject + ": " + message.Body)
	return nil
}
