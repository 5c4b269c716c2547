package tenant

import (
	"errors"
	"net/http"
	"strconv"
)

// Request carriers for the tenant identifier, checked in priority order.
const (
	HeaderTenantID = "X-Tenant-Id"
	HeaderClientID = "X-Client-Id"
	QueryTenantID  = "tenantId"
)

// TenantIDFromRequest extracts the tenant ID from a request, checking the
// tenant header, then the client header, then the query parameter. It
// returns ErrMissingTenantID when no carrier is present and
// ErrInvalidTenantID when the value is not a positive integer.
func TenantIDFromRequest(r *http.Request) (int64, error) {
	raw := r.Header.Get(HeaderTenantID)
	if raw == "" {
		raw = r.Header.Get(HeaderClientID)
	}
	if raw == "" {
		raw = r.URL.Query().Get(QueryTenantID)
	}
	if raw == "" {
		return 0, ErrMissingTenantID
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Join(ErrInvalidTenantID, err)
	}
	return id, nil
}
