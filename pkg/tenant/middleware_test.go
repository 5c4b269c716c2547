package tenant_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warekit/warekit/pkg/tenant"
)

var centralBinding = tenant.Binding{
	URI:      "mongodb://central.example.com:27017",
	Database: "warekit_central",
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("binds tenant connection for routed request", func(t *testing.T) {
		t.Parallel()

		store := newMockStore()
		store.add(testRecord(42))
		registry := tenant.NewRegistry(store)
		mw := tenant.Middleware(registry, centralBinding)

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, err := tenant.BindingFromContext(r.Context())
			require.NoError(t, err)
			assert.Equal(t, int64(42), b.TenantID)
			assert.Equal(t, "warehouse_42", b.Database)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/v1/roles", nil)
		req.Header.Set(tenant.HeaderTenantID, "42")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("central path bypasses tenant resolution", func(t *testing.T) {
		t.Parallel()

		store := newMockStore()
		registry := tenant.NewRegistry(store)
		mw := tenant.Middleware(registry, centralBinding,
			tenant.WithCentralPaths("/v1/tenants", "/healthz"))

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, err := tenant.BindingFromContext(r.Context())
			require.NoError(t, err)
			assert.True(t, b.Central())
			assert.Equal(t, "warekit_central", b.Database)
			w.WriteHeader(http.StatusOK)
		}))

		// A tenant header on a central path must not trigger resolution.
		req := httptest.NewRequest("GET", "/v1/tenants/42", nil)
		req.Header.Set(tenant.HeaderTenantID, "42")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(0), store.calls.Load())
	})

	t.Run("missing tenant identifier fails with 401", func(t *testing.T) {
		t.Parallel()

		registry := tenant.NewRegistry(newMockStore())
		mw := tenant.Middleware(registry, centralBinding)

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not be reached")
		}))

		req := httptest.NewRequest("GET", "/v1/roles", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "tenant context required")
	})

	t.Run("malformed tenant identifier fails with 401", func(t *testing.T) {
		t.Parallel()

		registry := tenant.NewRegistry(newMockStore())
		mw := tenant.Middleware(registry, centralBinding)

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not be reached")
		}))

		req := httptest.NewRequest("GET", "/v1/roles", nil)
		req.Header.Set(tenant.HeaderTenantID, "acme")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid tenant ID format")
	})

	t.Run("unknown tenant fails with 401", func(t *testing.T) {
		t.Parallel()

		registry := tenant.NewRegistry(newMockStore())
		mw := tenant.Middleware(registry, centralBinding)

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not be reached")
		}))

		req := httptest.NewRequest("GET", "/v1/roles", nil)
		req.Header.Set(tenant.HeaderTenantID, "999999")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "tenant not found")
	})

	t.Run("central store failure fails with 500", func(t *testing.T) {
		t.Parallel()

		store := newMockStore()
		store.failErr = errors.New("connection refused")
		registry := tenant.NewRegistry(store)
		mw := tenant.Middleware(registry, centralBinding)

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not be reached")
		}))

		req := httptest.NewRequest("GET", "/v1/roles", nil)
		req.Header.Set(tenant.HeaderTenantID, "1")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("custom error handler", func(t *testing.T) {
		t.Parallel()

		registry := tenant.NewRegistry(newMockStore())
		mw := tenant.Middleware(registry, centralBinding,
			tenant.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				w.WriteHeader(http.StatusTeapot)
			}))

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest("GET", "/v1/roles", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTeapot, w.Code)
	})
}

func TestMiddlewareNoLeakage(t *testing.T) {
	t.Parallel()

	t.Run("sequential requests for different tenants", func(t *testing.T) {
		t.Parallel()

		store := newMockStore()
		recA := testRecord(1)
		recA.Database = "warehouse_a"
		recB := testRecord(2)
		recB.Database = "warehouse_b"
		store.add(recA)
		store.add(recB)

		registry := tenant.NewRegistry(store)
		mw := tenant.Middleware(registry, centralBinding)

		var seen []string
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b := tenant.MustBinding(r.Context())
			seen = append(seen, b.Database)
			w.WriteHeader(http.StatusOK)
		}))

		for _, id := range []string{"1", "2", "1"} {
			req := httptest.NewRequest("GET", "/v1/roles", nil)
			req.Header.Set(tenant.HeaderTenantID, id)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)
		}

		assert.Equal(t, []string{"warehouse_a", "warehouse_b", "warehouse_a"}, seen)
	})

	t.Run("rejected request leaves no binding for the next one", func(t *testing.T) {
		t.Parallel()

		registry := tenant.NewRegistry(newMockStore())
		mw := tenant.Middleware(registry, centralBinding)

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not be reached")
		}))

		// Unknown tenant, then a request with no identifier at all: the
		// second must fail on its own merits, not ride on prior state.
		req := httptest.NewRequest("GET", "/v1/roles", nil)
		req.Header.Set(tenant.HeaderTenantID, "999999")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		req = httptest.NewRequest("GET", "/v1/roles", nil)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "tenant context required")
	})

	t.Run("binding is unreachable after the request completes", func(t *testing.T) {
		t.Parallel()

		store := newMockStore()
		store.add(testRecord(1))
		registry := tenant.NewRegistry(store)
		mw := tenant.Middleware(registry, centralBinding)

		var captured context.Context
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r.Context()
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/v1/roles", nil)
		req.Header.Set(tenant.HeaderTenantID, "1")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		// The binding existed only on the request-derived context; the
		// base context a worker would reuse stays clean.
		_, err := tenant.BindingFromContext(context.Background())
		assert.ErrorIs(t, err, tenant.ErrNoBindingInContext)
		require.NotNil(t, captured)
		_, err = tenant.BindingFromContext(captured)
		assert.NoError(t, err)
	})

	t.Run("concurrent requests observe their own tenant", func(t *testing.T) {
		t.Parallel()

		const workers = 16

		store := newMockStore()
		for i := int64(1); i <= workers; i++ {
			rec := testRecord(i)
			rec.Database = "warehouse_" + string(rune('a'+i-1))
			store.add(rec)
		}
		registry := tenant.NewRegistry(store)
		mw := tenant.Middleware(registry, centralBinding)

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b := tenant.MustBinding(r.Context())
			id, err := tenant.TenantIDFromRequest(r)
			require.NoError(t, err)
			assert.Equal(t, id, b.TenantID)
			w.WriteHeader(http.StatusOK)
		}))

		var wg sync.WaitGroup
		for i := int64(1); i <= workers; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				for range 20 {
					req := httptest.NewRequest("GET", "/v1/roles", nil)
					req.Header.Set(tenant.HeaderTenantID, strconv.FormatInt(id, 10))
					w := httptest.NewRecorder()
					handler.ServeHTTP(w, req)
					assert.Equal(t, http.StatusOK, w.Code)
				}
			}(i)
		}
		wg.Wait()
	})
}

func TestRequireBinding(t *testing.T) {
	t.Parallel()

	t.Run("passes routed requests through", func(t *testing.T) {
		t.Parallel()

		guard := tenant.RequireBinding(nil)
		handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/v1/roles", nil)
		req = req.WithContext(tenant.WithBinding(req.Context(), testBinding(1)))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects unrouted requests", func(t *testing.T) {
		t.Parallel()

		guard := tenant.RequireBinding(nil)
		handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not be reached")
		}))

		req := httptest.NewRequest("GET", "/v1/roles", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
