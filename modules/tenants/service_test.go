package tenants_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warekit/warekit/modules/tenants"
	"github.com/warekit/warekit/pkg/response"
)

func TestProvisionRequest_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid request gets pool defaults", func(t *testing.T) {
		t.Parallel()

		req := tenants.ProvisionRequest{
			Name:     "Acme Logistics",
			URI:      "mongodb://db-acme:27017",
			Database: "warekit_acme",
		}
		require.NoError(t, req.Validate())

		assert.Equal(t, uint64(100), req.MaxPoolSize)
		assert.Equal(t, uint64(1), req.MinPoolSize)
		assert.Equal(t, "majority", req.WriteConcern)
	})

	t.Run("explicit pool tuning is kept", func(t *testing.T) {
		t.Parallel()

		req := tenants.ProvisionRequest{
			Name:         "Acme Logistics",
			URI:          "mongodb+srv://cluster.example.net",
			Database:     "warekit_acme",
			MaxPoolSize:  20,
			MinPoolSize:  2,
			WriteConcern: "1",
		}
		require.NoError(t, req.Validate())

		assert.Equal(t, uint64(20), req.MaxPoolSize)
		assert.Equal(t, uint64(2), req.MinPoolSize)
		assert.Equal(t, "1", req.WriteConcern)
	})

	t.Run("rejects missing fields and bad URI schemes", func(t *testing.T) {
		t.Parallel()

		req := tenants.ProvisionRequest{
			Name:     "  ",
			URI:      "postgres://nope:5432",
			Database: "",
		}
		err := req.Validate()
		require.Error(t, err)

		var fields response.ValidationError
		require.ErrorAs(t, err, &fields)
		assert.Contains(t, fields, "name")
		assert.Contains(t, fields, "uri")
		assert.Contains(t, fields, "database")
	})

	t.Run("invalid request gets no defaults", func(t *testing.T) {
		t.Parallel()

		req := tenants.ProvisionRequest{URI: "mongodb://db:27017"}
		require.Error(t, req.Validate())

		assert.Zero(t, req.MaxPoolSize)
		assert.Empty(t, req.WriteConcern)
	})
}
