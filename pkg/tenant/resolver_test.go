package tenant_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warekit/warekit/pkg/tenant"
)

func TestTenantIDFromRequest(t *testing.T) {
	t.Parallel()

	t.Run("tenant header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/v1/roles", nil)
		req.Header.Set(tenant.HeaderTenantID, "42")

		id, err := tenant.TenantIDFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("client header as fallback", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/v1/roles", nil)
		req.Header.Set(tenant.HeaderClientID, "7")

		id, err := tenant.TenantIDFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
	})

	t.Run("query parameter as last resort", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/v1/roles?tenantId=9", nil)

		id, err := tenant.TenantIDFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, int64(9), id)
	})

	t.Run("tenant header wins over client header and query", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/v1/roles?tenantId=3", nil)
		req.Header.Set(tenant.HeaderTenantID, "1")
		req.Header.Set(tenant.HeaderClientID, "2")

		id, err := tenant.TenantIDFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	})

	t.Run("missing identifier", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/v1/roles", nil)

		_, err := tenant.TenantIDFromRequest(req)
		assert.ErrorIs(t, err, tenant.ErrMissingTenantID)
	})

	t.Run("malformed identifier", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"acme", "12.5", "-1", "0"} {
			req := httptest.NewRequest("GET", "/v1/roles", nil)
			req.Header.Set(tenant.HeaderTenantID, raw)

			_, err := tenant.TenantIDFromRequest(req)
			assert.ErrorIs(t, err, tenant.ErrInvalidTenantID, "value %q", raw)
		}
	})
}
