package mongodb

import "errors"

var (
	// ErrNoRoutingContext is returned when Current is called on a context
	// without a routing binding. It indicates a code path that bypassed the
	// routing middleware, not a condition worth retrying.
	ErrNoRoutingContext = errors.New("no database routing in context")

	// ErrEmptyURI is returned for a binding with an empty connection URI.
	ErrEmptyURI = errors.New("empty connection URI")

	// ErrFailedToConnect is returned when a client cannot be constructed.
	ErrFailedToConnect = errors.New("failed to create mongo client")

	// ErrHealthcheckFailed is returned when the central database does not respond to a ping.
	ErrHealthcheckFailed = errors.New("mongo healthcheck failed")
)
