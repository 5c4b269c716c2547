package email

import "errors"

var (
	// ErrInvalidConfig is returned when the sender configuration is incomplete.
	ErrInvalidConfig = errors.New("invalid email config")

	// ErrInvalidMessage is returned when a message fails validation.
	ErrInvalidMessage = errors.New("invalid email message")

	// ErrSendFailed is returned when the provider rejects a message.
	ErrSendFailed = errors.New("failed to send email")
)
