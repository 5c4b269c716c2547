package tenant

import (
	"context"
	"log/slog"
)

// Binding is the per-request routing value: the resolved connection URI,
// the database name and the tenant it belongs to. TenantID 0 means the
// central database. A Binding travels only on the request context — it is
// never persisted and never shared between requests.
type Binding struct {
	URI          string
	Database     string
	TenantID     int64
	MaxPoolSize  uint64
	MinPoolSize  uint64
	RetryWrites  bool
	WriteConcern string
}

// Central reports whether the binding targets the central database.
func (b Binding) Central() bool {
	return b.TenantID == 0
}

// bindingKey is a private type to prevent collisions with other context keys.
type bindingKey struct{}

// WithBinding returns a context carrying the routing binding.
// Any previously bound value is overwritten without complaint.
func WithBinding(ctx context.Context, b Binding) context.Context {
	return context.WithValue(ctx, bindingKey{}, &b)
}

// BindingFromContext returns the routing binding for the current request.
// It returns ErrNoBindingInContext when no binding has been set — a code
// path that bypassed the routing middleware, or a background job running
// outside request scope. Callers must treat that as a configuration error,
// never fall back to a default database.
func BindingFromContext(ctx context.Context) (Binding, error) {
	b, ok := ctx.Value(bindingKey{}).(*Binding)
	if !ok || b == nil {
		return Binding{}, ErrNoBindingInContext
	}
	return *b, nil
}

// ClearBinding returns a context with no routing binding, masking any
// binding set on a parent context. Clearing an unbound context is not an
// error. Handlers use this before handing a context to work that must not
// inherit the request's database routing.
func ClearBinding(ctx context.Context) context.Context {
	return context.WithValue(ctx, bindingKey{}, (*Binding)(nil))
}

// MustBinding returns the routing binding or panics. Use only in code that
// cannot run outside a routed request.
func MustBinding(ctx context.Context) Binding {
	b, err := BindingFromContext(ctx)
	if err != nil {
		panic("tenant: no routing binding in context")
	}
	return b
}

// IDFromContext returns the tenant ID marker for the current request.
// Returns 0, false for unrouted contexts and for central-routed requests.
func IDFromContext(ctx context.Context) (int64, bool) {
	b, err := BindingFromContext(ctx)
	if err != nil || b.Central() {
		return 0, false
	}
	return b.TenantID, true
}

// LoggerExtractor returns a logger context extractor that stamps the
// tenant ID on every log line emitted inside a routed request.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.Int64("tenant_id", id), true
		}
		return slog.Attr{}, false
	}
}
