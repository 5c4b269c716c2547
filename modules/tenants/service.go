// Package tenants implements tenant provisioning and lifecycle management
// against the central database.
package tenants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/warekit/warekit/pkg/mongodb"
	"github.com/warekit/warekit/pkg/response"
	"github.com/warekit/warekit/pkg/tenant"
)

var (
	// ErrNotFound is returned when no tenant exists for the given ID.
	ErrNotFound = errors.New("tenant not found")
)

// Tenant is the central profile of a provisioned tenant.
type Tenant struct {
	ID        int64     `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Active    bool      `bson:"active" json:"active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ProvisionRequest creates a tenant together with its connection record.
type ProvisionRequest struct {
	Name         string `json:"name"`
	URI          string `json:"uri"`
	Database     string `json:"database"`
	MaxPoolSize  uint64 `json:"max_pool_size"`
	MinPoolSize  uint64 `json:"min_pool_size"`
	RetryWrites  *bool  `json:"retry_writes"`
	WriteConcern string `json:"write_concern"`
}

// Validate checks the request and fills pool defaults.
func (r *ProvisionRequest) Validate() error {
	fields := response.ValidationError{}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = append(fields["name"], "is required")
	}
	if !strings.HasPrefix(r.URI, "mongodb://") && !strings.HasPrefix(r.URI, "mongodb+srv://") {
		fields["uri"] = append(fields["uri"], "must be a mongodb:// or mongodb+srv:// URI")
	}
	if strings.TrimSpace(r.Database) == "" {
		fields["database"] = append(fields["database"], "is required")
	}
	if len(fields) > 0 {
		return fields
	}

	if r.MaxPoolSize == 0 {
		r.MaxPoolSize = 100
	}
	if r.MinPoolSize == 0 {
		r.MinPoolSize = 1
	}
	if r.WriteConcern == "" {
		r.WriteConcern = "majority"
	}
	return nil
}

// UpdateRequest is a partial update of the tenant profile.
type UpdateRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

// ConnectionUpdateRequest is a partial update of the connection record:
// credential rotation or pool tuning. Unset fields keep prior values.
type ConnectionUpdateRequest struct {
	URI          *string `json:"uri"`
	Database     *string `json:"database"`
	MaxPoolSize  *uint64 `json:"max_pool_size"`
	MinPoolSize  *uint64 `json:"min_pool_size"`
	RetryWrites  *bool   `json:"retry_writes"`
	WriteConcern *string `json:"write_concern"`
}

// Service manages tenant provisioning and lifecycle. All operations run
// against the central database via the request's routing binding — the
// tenants router is mounted under a central path prefix.
type Service struct {
	dbs      *mongodb.Factory
	registry *tenant.Registry
	log      *slog.Logger
}

// NewService creates the tenants service.
func NewService(dbs *mongodb.Factory, registry *tenant.Registry, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{dbs: dbs, registry: registry, log: log}
}

// Provision creates a tenant profile plus its connection record and
// returns the new tenant. Tenant IDs are allocated from an atomic counter
// in the central database.
func (s *Service) Provision(ctx context.Context, req ProvisionRequest) (*Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	id, err := s.nextTenantID(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("allocate tenant ID: %w", err)
	}

	now := time.Now().UTC()
	t := &Tenant{
		ID:        id,
		Name:      strings.TrimSpace(req.Name),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.Collection(tenantsCollection).InsertOne(ctx, t); err != nil {
		return nil, fmt.Errorf("insert tenant profile: %w", err)
	}

	retryWrites := true
	if req.RetryWrites != nil {
		retryWrites = *req.RetryWrites
	}
	rec := tenant.ConnectionRecord{
		TenantID:     id,
		URI:          req.URI,
		Database:     req.Database,
		MaxPoolSize:  req.MaxPoolSize,
		MinPoolSize:  req.MinPoolSize,
		RetryWrites:  retryWrites,
		WriteConcern: req.WriteConcern,
		UpdatedAt:    now,
	}
	if _, err := db.Collection(connectionsCollection).InsertOne(ctx, rec); err != nil {
		// Roll the profile back so a retry can reuse the name; the ID is burned.
		_, _ = db.Collection(tenantsCollection).DeleteOne(ctx, bson.M{"_id": id})
		return nil, fmt.Errorf("insert connection record: %w", err)
	}

	s.log.InfoContext(ctx, "tenant provisioned", "tenant_id", id, "database", req.Database)
	return t, nil
}

// Get returns a tenant profile.
func (s *Service) Get(ctx context.Context, id int64) (*Tenant, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	var t Tenant
	err = db.Collection(tenantsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load tenant %d: %w", id, err)
	}
	return &t, nil
}

// List returns all tenant profiles.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := db.Collection(tenantsCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	var out []Tenant
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode tenants: %w", err)
	}
	return out, nil
}

// Update applies a partial update to the tenant profile.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Tenant, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, response.ValidationError{"name": {"must not be empty"}}
		}
		set["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Active != nil {
		set["active"] = *req.Active
	}

	var t Tenant
	err = db.Collection(tenantsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update tenant %d: %w", id, err)
	}

	// Deactivation must take effect before the next routed request.
	s.registry.Invalidate(ctx, id)
	return &t, nil
}

// UpdateConnection rotates connection settings for a tenant. The cached
// routing entry is invalidated so the next request resolves fresh data.
func (s *Service) UpdateConnection(ctx context.Context, id int64, req ConnectionUpdateRequest) (*tenant.ConnectionRecord, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if req.URI != nil {
		if !strings.HasPrefix(*req.URI, "mongodb://") && !strings.HasPrefix(*req.URI, "mongodb+srv://") {
			return nil, response.ValidationError{"uri": {"must be a mongodb:// or mongodb+srv:// URI"}}
		}
		set["uri"] = *req.URI
	}
	if req.Database != nil {
		set["database"] = *req.Database
	}
	if req.MaxPoolSize != nil {
		set["max_pool_size"] = *req.MaxPoolSize
	}
	if req.MinPoolSize != nil {
		set["min_pool_size"] = *req.MinPoolSize
	}
	if req.RetryWrites != nil {
		set["retry_writes"] = *req.RetryWrites
	}
	if req.WriteConcern != nil {
		set["write_concern"] = *req.WriteConcern
	}

	var rec tenant.ConnectionRecord
	err = db.Collection(connectionsCollection).
		FindOneAndUpdate(ctx, bson.M{"tenant_id": id}, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update connection for tenant %d: %w", id, err)
	}

	s.registry.Invalidate(ctx, id)
	s.log.InfoContext(ctx, "tenant connection updated", "tenant_id", id)
	return &rec, nil
}

// Delete removes a tenant profile and its connection record, and drops
// the cached routing entry. Tenant database contents are not touched.
func (s *Service) Delete(ctx context.Context, id int64) error {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return err
	}

	res, err := db.Collection(tenantsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete tenant %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	if _, err := db.Collection(connectionsCollection).DeleteOne(ctx, bson.M{"tenant_id": id}); err != nil {
		return fmt.Errorf("delete connection record for tenant %d: %w", id, err)
	}

	s.registry.Invalidate(ctx, id)
	s.log.InfoContext(ctx, "tenant deleted", "tenant_id", id)
	return nil
}

type counter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

func (s *Service) nextTenantID(ctx context.Context, db *mongo.Database) (int64, error) {
	var c counter
	err := db.Collection(countersCollection).
		FindOneAndUpdate(ctx,
			bson.M{"_id": "tenant_id"},
			bson.M{"$inc": bson.M{"seq": 1}},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).
		Decode(&c)
	if err != nil {
		return 0, err
	}
	return c.Seq, nil
}
