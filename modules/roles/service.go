// Package roles implements role and permission management plus user-role
// assignment, scoped to the tenant database the request is routed to.
package roles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/warekit/warekit/pkg/mongodb"
	"github.com/warekit/warekit/pkg/response"
)

const (
	rolesCollection     = "roles"
	userRolesCollection = "user_roles"
)

var (
	// ErrNotFound is returned when no role exists for the given ID.
	ErrNotFound = errors.New("role not found")

	// ErrDuplicateName is returned when a role with the same name exists.
	ErrDuplicateName = errors.New("role name already in use")
)

// Role groups a set of permission strings under a name.
type Role struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description,omitempty"`
	Permissions []string  `bson:"permissions" json:"permissions"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Assignment links a user to a role.
type Assignment struct {
	UserID     string    `bson:"user_id" json:"user_id"`
	RoleID     string    `bson:"role_id" json:"role_id"`
	AssignedAt time.Time `bson:"assigned_at" json:"assigned_at"`
}

// CreateRequest creates a role.
type CreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// Validate checks the request.
func (r *CreateRequest) Validate() error {
	fields := response.ValidationError{}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = append(fields["name"], "is required")
	}
	for _, p := range r.Permissions {
		if strings.TrimSpace(p) == "" {
			fields["permissions"] = append(fields["permissions"], "must not contain empty entries")
			break
		}
	}
	if len(fields) > 0 {
		return fields
	}
	if r.Permissions == nil {
		r.Permissions = []string{}
	}
	return nil
}

// UpdateRequest is a partial role update.
type UpdateRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
}

// Service manages roles in the current tenant database.
type Service struct {
	dbs *mongodb.Factory
	log *slog.Logger
}

// NewService creates the roles service.
func NewService(dbs *mongodb.Factory, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{dbs: dbs, log: log}
}

// Create inserts a new role.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Role, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	count, err := db.Collection(rolesCollection).CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		return nil, fmt.Errorf("check role name: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateName
	}

	now := time.Now().UTC()
	role := &Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Permissions: req.Permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := db.Collection(rolesCollection).InsertOne(ctx, role); err != nil {
		return nil, fmt.Errorf("insert role: %w", err)
	}
	return role, nil
}

// Get returns one role.
func (s *Service) Get(ctx context.Context, id string) (*Role, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	var role Role
	err = db.Collection(rolesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&role)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load role %s: %w", id, err)
	}
	return &role, nil
}

// List returns all roles sorted by name.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := db.Collection(rolesCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	var out []Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	return out, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Role, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, response.ValidationError{"name": {"must not be empty"}}
		}
		set["name"] = name
	}
	if req.Description != nil {
		set["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Permissions != nil {
		set["permissions"] = *req.Permissions
	}

	var role Role
	err = db.Collection(rolesCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&role)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update role %s: %w", id, err)
	}
	return &role, nil
}

// Delete removes a role and every assignment that references it.
func (s *Service) Delete(ctx context.Context, id string) error {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return err
	}

	res, err := db.Collection(rolesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete role %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	if _, err := db.Collection(userRolesCollection).DeleteMany(ctx, bson.M{"role_id": id}); err != nil {
		return fmt.Errorf("delete assignments for role %s: %w", id, err)
	}
	return nil
}

// Assign links a user to a role. Assigning an already-assigned role is
// idempotent.
func (s *Service) Assign(ctx context.Context, userID, roleID string) (*Assignment, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, response.ValidationError{"user_id": {"is required"}}
	}

	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	// The role must exist before it can be assigned.
	count, err := db.Collection(rolesCollection).CountDocuments(ctx, bson.M{"_id": roleID})
	if err != nil {
		return nil, fmt.Errorf("check role %s: %w", roleID, err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	a := &Assignment{UserID: userID, RoleID: roleID, AssignedAt: time.Now().UTC()}
	_, err = db.Collection(userRolesCollection).UpdateOne(ctx,
		bson.M{"user_id": userID, "role_id": roleID},
		bson.M{"$setOnInsert": a},
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("assign role %s to user %s: %w", roleID, userID, err)
	}
	return a, nil
}

// Unassign removes a user-role link.
func (s *Service) Unassign(ctx context.Context, userID, roleID string) error {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return err
	}

	res, err := db.Collection(userRolesCollection).DeleteOne(ctx,
		bson.M{"user_id": userID, "role_id": roleID})
	if err != nil {
		return fmt.Errorf("unassign role %s from user %s: %w", roleID, userID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RolesForUser returns every role assigned to a user.
func (s *Service) RolesForUser(ctx context.Context, userID string) ([]Role, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := db.Collection(userRolesCollection).Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list assignments for user %s: %w", userID, err)
	}
	var assignments []Assignment
	if err := cur.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}
	if len(assignments) == 0 {
		return []Role{}, nil
	}

	ids := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.RoleID
	}

	cur, err = db.Collection(rolesCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("load roles for user %s: %w", userID, err)
	}
	var out []Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	return out, nil
}
