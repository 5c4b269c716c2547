package mongodb_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/warekit/warekit/pkg/mongodb"
	"github.com/warekit/warekit/pkg/tenant"
)

// Client construction in the driver is lazy, so these tests exercise the
// pool without a running server.

func testConfig() mongodb.Config {
	return mongodb.Config{
		CentralURL:      "mongodb://central.local:27017",
		CentralDatabase: "warekit_central",
		MaxPoolSize:     100,
		MinPoolSize:     1,
	}
}

func TestFactoryClientReuse(t *testing.T) {
	t.Parallel()

	t.Run("same URI returns the identical client", func(t *testing.T) {
		t.Parallel()

		f := mongodb.NewFactory(testConfig())
		t.Cleanup(func() { _ = f.Close(context.Background()) })

		first, err := f.Client("mongodb://tenant-a.local:27017")
		require.NoError(t, err)
		second, err := f.Client("mongodb://tenant-a.local:27017")
		require.NoError(t, err)

		assert.Same(t, first, second)
	})

	t.Run("distinct URIs yield distinct clients", func(t *testing.T) {
		t.Parallel()

		f := mongodb.NewFactory(testConfig())
		t.Cleanup(func() { _ = f.Close(context.Background()) })

		a, err := f.Client("mongodb://tenant-a.local:27017")
		require.NoError(t, err)
		b, err := f.Client("mongodb://tenant-b.local:27017")
		require.NoError(t, err)

		assert.NotSame(t, a, b)
	})

	t.Run("concurrent first use does not create duplicates", func(t *testing.T) {
		t.Parallel()

		f := mongodb.NewFactory(testConfig())
		t.Cleanup(func() { _ = f.Close(context.Background()) })

		const goroutines = 32
		clients := make([]*mongo.Client, goroutines)

		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := range goroutines {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				c, err := f.Client("mongodb://tenant-x.local:27017")
				assert.NoError(t, err)
				clients[i] = c
			}(i)
		}
		close(start)
		wg.Wait()

		for i := 1; i < goroutines; i++ {
			assert.Same(t, clients[0], clients[i])
		}
	})

	t.Run("empty URI is rejected", func(t *testing.T) {
		t.Parallel()

		f := mongodb.NewFactory(testConfig())
		_, err := f.Client("")
		assert.ErrorIs(t, err, mongodb.ErrEmptyURI)
	})
}

func TestFactoryCurrent(t *testing.T) {
	t.Parallel()

	t.Run("resolves the bound tenant database", func(t *testing.T) {
		t.Parallel()

		f := mongodb.NewFactory(testConfig())
		t.Cleanup(func() { _ = f.Close(context.Background()) })

		ctx := tenant.WithBinding(context.Background(), tenant.Binding{
			URI:      "mongodb://tenant-a.local:27017",
			Database: "warehouse_a",
			TenantID: 1,
		})

		db, err := f.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "warehouse_a", db.Name())
	})

	t.Run("re-reads the binding on every call", func(t *testing.T) {
		t.Parallel()

		f := mongodb.NewFactory(testConfig())
		t.Cleanup(func() { _ = f.Close(context.Background()) })

		ctxA := tenant.WithBinding(context.Background(), tenant.Binding{
			URI: "mongodb://tenant-a.local:27017", Database: "warehouse_a", TenantID: 1,
		})
		ctxB := tenant.WithBinding(context.Background(), tenant.Binding{
			URI: "mongodb://tenant-b.local:27017", Database: "warehouse_b", TenantID: 2,
		})

		dbA, err := f.Current(ctxA)
		require.NoError(t, err)
		dbB, err := f.Current(ctxB)
		require.NoError(t, err)

		assert.Equal(t, "warehouse_a", dbA.Name())
		assert.Equal(t, "warehouse_b", dbB.Name())
	})

	t.Run("same tenant shares one client across requests", func(t *testing.T) {
		t.Parallel()

		f := mongodb.NewFactory(testConfig())
		t.Cleanup(func() { _ = f.Close(context.Background()) })

		binding := tenant.Binding{
			URI: "mongodb://tenant-a.local:27017", Database: "warehouse_a", TenantID: 1,
		}

		dbFirst, err := f.Current(tenant.WithBinding(context.Background(), binding))
		require.NoError(t, err)
		dbSecond, err := f.Current(tenant.WithBinding(context.Background(), binding))
		require.NoError(t, err)

		assert.Same(t, dbFirst.Client(), dbSecond.Client())
	})

	t.Run("fails loudly without a routing binding", func(t *testing.T) {
		t.Parallel()

		f := mongodb.NewFactory(testConfig())

		_, err := f.Current(context.Background())
		assert.ErrorIs(t, err, mongodb.ErrNoRoutingContext)
		assert.ErrorIs(t, err, tenant.ErrNoBindingInContext)
	})
}

func TestFactoryCentral(t *testing.T) {
	t.Parallel()

	f := mongodb.NewFactory(testConfig())
	t.Cleanup(func() { _ = f.Close(context.Background()) })

	db, err := f.Central()
	require.NoError(t, err)
	assert.Equal(t, "warekit_central", db.Name())

	// The central client is pooled like any other.
	again, err := f.Central()
	require.NoError(t, err)
	assert.Same(t, db.Client(), again.Client())
}

func TestFactoryClose(t *testing.T) {
	t.Parallel()

	f := mongodb.NewFactory(testConfig())

	first, err := f.Client("mongodb://tenant-a.local:27017")
	require.NoError(t, err)
	require.NoError(t, f.Close(context.Background()))

	// The pool is empty after Close; a new client is constructed.
	second, err := f.Client("mongodb://tenant-a.local:27017")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestConfigCentralBinding(t *testing.T) {
	t.Parallel()

	b := testConfig().CentralBinding()
	assert.True(t, b.Central())
	assert.Equal(t, "mongodb://central.local:27017", b.URI)
	assert.Equal(t, "warekit_central", b.Database)
}
