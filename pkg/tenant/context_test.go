package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warekit/warekit/pkg/tenant"
)

func testBinding(tenantID int64) tenant.Binding {
	return tenant.Binding{
		URI:      "mongodb://tenant.example.com:27017",
		Database: "warehouse_42",
		TenantID: tenantID,
	}
}

func TestWithBinding(t *testing.T) {
	t.Parallel()

	t.Run("stores and retrieves binding", func(t *testing.T) {
		t.Parallel()

		want := testBinding(42)
		ctx := tenant.WithBinding(context.Background(), want)

		got, err := tenant.BindingFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("overwrites prior binding without complaint", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithBinding(context.Background(), testBinding(1))
		ctx = tenant.WithBinding(ctx, testBinding(2))

		got, err := tenant.BindingFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.TenantID)
	})

	t.Run("binding is local to the derived context", func(t *testing.T) {
		t.Parallel()

		parent := context.Background()
		_ = tenant.WithBinding(parent, testBinding(7))

		_, err := tenant.BindingFromContext(parent)
		assert.ErrorIs(t, err, tenant.ErrNoBindingInContext)
	})
}

func TestBindingFromContext(t *testing.T) {
	t.Parallel()

	t.Run("fails on unbound context", func(t *testing.T) {
		t.Parallel()

		_, err := tenant.BindingFromContext(context.Background())
		assert.ErrorIs(t, err, tenant.ErrNoBindingInContext)
	})
}

func TestClearBinding(t *testing.T) {
	t.Parallel()

	t.Run("masks a bound value", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithBinding(context.Background(), testBinding(3))
		ctx = tenant.ClearBinding(ctx)

		_, err := tenant.BindingFromContext(ctx)
		assert.ErrorIs(t, err, tenant.ErrNoBindingInContext)
	})

	t.Run("is idempotent on an empty context", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.ClearBinding(context.Background())
		ctx = tenant.ClearBinding(ctx)

		_, err := tenant.BindingFromContext(ctx)
		assert.ErrorIs(t, err, tenant.ErrNoBindingInContext)
	})

	t.Run("does not affect the parent context", func(t *testing.T) {
		t.Parallel()

		bound := tenant.WithBinding(context.Background(), testBinding(9))
		_ = tenant.ClearBinding(bound)

		got, err := tenant.BindingFromContext(bound)
		require.NoError(t, err)
		assert.Equal(t, int64(9), got.TenantID)
	})
}

func TestMustBinding(t *testing.T) {
	t.Parallel()

	t.Run("returns binding when present", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithBinding(context.Background(), testBinding(5))
		assert.Equal(t, int64(5), tenant.MustBinding(ctx).TenantID)
	})

	t.Run("panics on unbound context", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			tenant.MustBinding(context.Background())
		})
	})
}

func TestIDFromContext(t *testing.T) {
	t.Parallel()

	t.Run("returns tenant ID for routed request", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithBinding(context.Background(), testBinding(11))
		id, ok := tenant.IDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, int64(11), id)
	})

	t.Run("reports no tenant for central binding", func(t *testing.T) {
		t.Parallel()

		central := tenant.Binding{URI: "mongodb://central:27017", Database: "central"}
		ctx := tenant.WithBinding(context.Background(), central)

		_, ok := tenant.IDFromContext(ctx)
		assert.False(t, ok)
	})

	t.Run("reports no tenant for unbound context", func(t *testing.T) {
		t.Parallel()

		_, ok := tenant.IDFromContext(context.Background())
		assert.False(t, ok)
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := tenant.LoggerExtractor()

	ctx := tenant.WithBinding(context.Background(), testBinding(21))
	attr, ok := extract(ctx)
	require.True(t, ok)
	assert.Equal(t, "tenant_id", attr.Key)
	assert.Equal(t, int64(21), attr.Value.Int64())

	_, ok = extract(context.Background())
	assert.False(t, ok)
}
