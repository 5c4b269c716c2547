// Package email defines the sender interface used by template test
// delivery, with a Postmark implementation for production and a
// file-writing implementation for local development.
package email

import (
	"context"
	"fmt"
	"regexp"
)

// Sender sends transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a single outbound email.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks the message is sendable.
func (m Message) Validate() error {
	if m.To == "" || !emailRegex.MatchString(m.To) {
		return fmt.Errorf("%w: invalid recipient %q", ErrInvalidMessage, m.To)
	}
	if m.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if m.BodyHTML == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}

// Config holds sender configuration.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"EMAIL_SENDER" envDefault:"no-reply@warekit.io"`
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"` // Used when Postmark tokens are absent.
}
