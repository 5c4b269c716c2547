package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// ErrorHandler converts a routing failure into an HTTP response.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// middlewareConfig holds router configuration.
type middlewareConfig struct {
	centralPaths []string
	errorHandler ErrorHandler
	log          *slog.Logger
}

// MiddlewareOption configures the routing middleware.
type MiddlewareOption func(*middlewareConfig)

// WithCentralPaths sets path prefixes that always route to the central
// database, bypassing tenant resolution entirely. Administrative and
// tenant-management endpoints plus health checks belong here.
func WithCentralPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.centralPaths = append(c.centralPaths, paths...)
	}
}

// WithErrorHandler sets a custom routing error handler.
func WithErrorHandler(handler ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithMiddlewareLogger sets the middleware logger.
func WithMiddlewareLogger(log *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// Middleware routes every inbound request to its database. Requests under
// a central path prefix are bound to the central database without touching
// the registry. All other requests must carry a tenant identifier; the
// middleware resolves it through the registry and binds the tenant's
// connection into the request context before the handler chain runs.
//
// The binding lives only on the derived context passed to the next
// handler. When the handler returns — normally, by panic recovered
// upstream, or through a transport-level cancellation — the context and
// its binding are unreachable, so a pooled worker goroutine never carries
// routing state into a later request.
//
// Routing failures never reach the handler: a missing, malformed or
// unknown tenant identifier terminates the request with 401, a central
// store failure with 500.
func Middleware(registry *Registry, central Binding, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: defaultErrorHandler,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range cfg.centralPaths {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r.WithContext(WithBinding(r.Context(), central)))
					return
				}
			}

			tenantID, err := TenantIDFromRequest(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			rec, err := registry.Resolve(r.Context(), tenantID)
			if err != nil {
				if !errors.Is(err, ErrTenantNotFound) {
					cfg.log.ErrorContext(r.Context(), "tenant resolution failed",
						"tenant_id", tenantID, "error", err)
				}
				cfg.errorHandler(w, r, err)
				return
			}

			ctx := WithBinding(r.Context(), rec.Binding())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireBinding ensures a routing binding is present in the context.
// Mount it on routes that must never run unrouted, as a guard against
// misconfigured route trees.
func RequireBinding(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := BindingFromContext(r.Context()); err != nil {
				errorHandler(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// defaultErrorHandler maps routing failures to HTTP statuses. Unknown
// tenants deliberately get 401 rather than 404 so external callers cannot
// distinguish "does not exist" from "not authorized".
func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissingTenantID):
		http.Error(w, "tenant context required", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidTenantID):
		http.Error(w, "invalid tenant ID format", http.StatusUnauthorized)
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "tenant not found", http.StatusUnauthorized)
	case errors.Is(err, ErrNoBindingInContext):
		http.Error(w, "request not routed", http.StatusInternalServerError)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
