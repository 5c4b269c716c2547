package tenants

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/warekit/warekit/pkg/mongodb"
	"github.com/warekit/warekit/pkg/tenant"
)

const (
	tenantsCollection     = "tenants"
	connectionsCollection = "tenant_connections"
	countersCollection    = "counters"
)

// Store reads tenant connection records from the central database. It is
// the registry's backing store and deliberately bypasses request routing:
// it runs during routing, before any binding exists.
type Store struct {
	dbs *mongodb.Factory
}

// NewStore creates the central connection store.
func NewStore(dbs *mongodb.Factory) *Store {
	return &Store{dbs: dbs}
}

// GetByID implements tenant.Store.
func (s *Store) GetByID(ctx context.Context, tenantID int64) (*tenant.ConnectionRecord, error) {
	db, err := s.dbs.Central()
	if err != nil {
		return nil, fmt.Errorf("central database: %w", err)
	}

	var rec tenant.ConnectionRecord
	err = db.Collection(connectionsCollection).
		FindOne(ctx, bson.M{"tenant_id": tenantID}).
		Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load connection record for tenant %d: %w", tenantID, err)
	}
	return &rec, nil
}
