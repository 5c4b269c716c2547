package tenant

import (
	"context"
	"time"
)

// ConnectionRecord describes how to reach one tenant's database. Records
// live in the central database, are created at tenant provisioning and
// change rarely (credential rotation, pool tuning). Exactly one record
// exists per tenant ID.
type ConnectionRecord struct {
	TenantID     int64     `bson:"tenant_id" json:"tenant_id"`
	URI          string    `bson:"uri" json:"-"`
	Database     string    `bson:"database" json:"database"`
	MaxPoolSize  uint64    `bson:"max_pool_size" json:"max_pool_size"`
	MinPoolSize  uint64    `bson:"min_pool_size" json:"min_pool_size"`
	RetryWrites  bool      `bson:"retry_writes" json:"retry_writes"`
	WriteConcern string    `bson:"write_concern" json:"write_concern"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Binding converts the record into the ephemeral per-request routing value.
func (r *ConnectionRecord) Binding() Binding {
	return Binding{
		URI:          r.URI,
		Database:     r.Database,
		TenantID:     r.TenantID,
		MaxPoolSize:  r.MaxPoolSize,
		MinPoolSize:  r.MinPoolSize,
		RetryWrites:  r.RetryWrites,
		WriteConcern: r.WriteConcern,
	}
}

// Store loads connection records from the central database.
// Implementations must return ErrTenantNotFound when no record exists
// for the given ID, so callers can distinguish "unknown tenant" from
// infrastructure failures.
type Store interface {
	GetByID(ctx context.Context, tenantID int64) (*ConnectionRecord, error)
}
