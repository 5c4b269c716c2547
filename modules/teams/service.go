// Package teams implements team management in the tenant database.
package teams

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

const teamsCollection = "teams"

var ErrNotFound = errors.New("team not found")

type Team struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description,omitempty"`
	Members     []string  `bson:"members" json:"members"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

type CreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return response.ValidationError{"name": {"is required"}}
	}
	if r.Members == nil {
		r.Members = []string{}
	}
	return nil
}

type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type Service struct {
	dbs *mongodb.Factory
	log *slog.Logger
}

func NewService(dbs *mongodb.Factory, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{dbs: dbs, log: log}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Team, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	team := &Team{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Members:     req.Members,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := db.Collection(teamsCollection).InsertOne(ctx, team); err != nil {
		return nil, fmt.Errorf("insert team: %w", err)
	}
	return team, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Team, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	var team Team
	err = db.Collection(teamsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&team)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load team %s: %w", id, err)
	}
	return &team, nil
}

func (s *Service) List(ctx context.Context) ([]Team, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := db.Collection(teamsCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	var out []Team
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode teams: %w", err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Team, error) {
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

	var team Team
	err = db.Collection(teamsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&team)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update team %s: %w", id, err)
	}
	return &team, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return err
	}

	res, err := db.Collection(teamsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete team %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember is idempotent: adding an existing member changes nothing.
func (s *Service) AddMember(ctx context.Context, teamID, userID string) (*Team, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, response.ValidationError{"user_id": {"is required"}}
	}

	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	var team Team
	err = db.Collection(teamsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": teamID},
			bson.M{
				"$addToSet": bson.M{"members": userID},
				"$set":      bson.M{"updated_at": time.Now().UTC()},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&team)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("add member to team %s: %w", teamID, err)
	}
	return &team, nil
}

func (s *Service) RemoveMember(ctx context.Context, teamID, userID string) (*Team, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	var team Team
	err = db.Collection(teamsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": teamID},
			bson.M{
				"$pull": bson.M{"members": userID},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&team)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("remove member from team %s: %w", teamID, err)
	}
	return &team, nil
}
