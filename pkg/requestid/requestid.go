// Package requestid tags every request with a correlation ID so log lines
// from the routing middleware, services, and stores can be stitched
// together per request. Inbound X-Request-ID values are trusted when they
// look sane; everything else gets a fresh UUID.
package requestid

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header carries the request ID on requests and responses.
const Header = "X-Request-ID"

const maxIDLength = 128

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type ctxKey struct{}

// WithContext stores the request ID on the context.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request ID or "" when the request was not
// routed through Middleware.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Middleware accepts a well-formed inbound X-Request-ID or generates one,
// echoes it on the response, and stores it on the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !acceptable(id) {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}

// LoggerExtractor stamps the request ID on every log line emitted inside
// a request. Pair it with the tenant extractor on the shared logger.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}

func acceptable(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}
