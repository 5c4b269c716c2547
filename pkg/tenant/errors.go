package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no connection record exists for a tenant ID.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrMissingTenantID is returned when a request carries no tenant identifier.
	ErrMissingTenantID = errors.New("tenant context required")

	// ErrInvalidTenantID is returned when the tenant identifier is not a positive integer.
	ErrInvalidTenantID = errors.New("invalid tenant ID format")

	// ErrNoBindingInContext is returned when no routing binding has been set
	// for the current context. It signals a code path that bypassed the
	// routing middleware, not a client error.
	ErrNoBindingInContext = errors.New("no database binding in context")
)
