// Package templates manages document and email templates per tenant.
// Template bodies are opaque strings; rendering happens elsewhere.
package templates

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

	"github.com/warekit/warekit/pkg/email"
	"github.com/warekit/warekit/pkg/mongodb"
	"github.com/warekit/warekit/pkg/response"
)

const (
	documentsCollection = "document_templates"
	emailsCollection    = "email_templates"
)

var ErrNotFound = errors.New("template not found")

// DocumentTemplate is a printable warehouse document: packing slip,
// delivery note, shipping label.
type DocumentTemplate struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Kind      string    `bson:"kind" json:"kind"`
	Body      string    `bson:"body" json:"body"`
	Active    bool      `bson:"active" json:"active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EmailTemplate is a transactional email template.
type EmailTemplate struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Subject   string    `bson:"subject" json:"subject"`
	BodyHTML  string    `bson:"body_html" json:"body_html"`
	Tag       string    `bson:"tag" json:"tag,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DocumentRequest creates or fully replaces a document template.
type DocumentRequest struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Body   string `json:"body"`
	Active *bool  `json:"active"`
}

func (r *DocumentRequest) Validate() error {
	fields := response.ValidationError{}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = append(fields["name"], "is required")
	}
	if strings.TrimSpace(r.Kind) == "" {
		fields["kind"] = append(fields["kind"], "is required")
	}
	if r.Body == "" {
		fields["body"] = append(fields["body"], "is required")
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// EmailRequest creates or fully replaces an email template.
type EmailRequest struct {
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag"`
}

func (r *EmailRequest) Validate() error {
	fields := response.ValidationError{}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = append(fields["name"], "is required")
	}
	if strings.TrimSpace(r.Subject) == "" {
		fields["subject"] = append(fields["subject"], "is required")
	}
	if r.BodyHTML == "" {
		fields["body_html"] = append(fields["body_html"], "is required")
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// Service manages templates in the current tenant database.
type Service struct {
	dbs    *mongodb.Factory
	sender email.Sender
	log    *slog.Logger
}

// NewService creates the templates service. The sender is used for test
// deliveries of email templates.
func NewService(dbs *mongodb.Factory, sender email.Sender, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{dbs: dbs, sender: sender, log: log}
}

// CreateDocument inserts a document template.
func (s *Service) CreateDocument(ctx context.Context, req DocumentRequest) (*DocumentTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	doc := &DocumentTemplate{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Kind:      strings.TrimSpace(req.Kind),
		Body:      req.Body,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.Collection(documentsCollection).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert document template: %w", err)
	}
	return doc, nil
}

// GetDocument returns one document template.
func (s *Service) GetDocument(ctx context.Context, id string) (*DocumentTemplate, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	var doc DocumentTemplate
	err = db.Collection(documentsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load document template %s: %w", id, err)
	}
	return &doc, nil
}

// ListDocuments returns document templates, optionally filtered by kind.
func (s *Service) ListDocuments(ctx context.Context, kind string) ([]DocumentTemplate, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}

	cur, err := db.Collection(documentsCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list document templates: %w", err)
	}

	var out []DocumentTemplate
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode document templates: %w", err)
	}
	return out, nil
}

// ReplaceDocument fully replaces a document template body and metadata.
func (s *Service) ReplaceDocument(ctx context.Context, id string, req DocumentRequest) (*DocumentTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	set := bson.M{
		"name":       strings.TrimSpace(req.Name),
		"kind":       strings.TrimSpace(req.Kind),
		"body":       req.Body,
		"active":     active,
		"updated_at": time.Now().UTC(),
	}

	var doc DocumentTemplate
	err = db.Collection(documentsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("replace document template %s: %w", id, err)
	}
	return &doc, nil
}

// DeleteDocument removes a document template.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return err
	}

	res, err := db.Collection(documentsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete document template %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateEmail inserts an email template.
func (s *Service) CreateEmail(ctx context.Context, req EmailRequest) (*EmailTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tpl := &EmailTemplate{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Subject:   strings.TrimSpace(req.Subject),
		BodyHTML:  req.BodyHTML,
		Tag:       strings.TrimSpace(req.Tag),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.Collection(emailsCollection).InsertOne(ctx, tpl); err != nil {
		return nil, fmt.Errorf("insert email template: %w", err)
	}
	return tpl, nil
}

// GetEmail returns one email template.
func (s *Service) GetEmail(ctx context.Context, id string) (*EmailTemplate, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	var tpl EmailTemplate
	err = db.Collection(emailsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&tpl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load email template %s: %w", id, err)
	}
	return &tpl, nil
}

// ListEmails returns all email templates.
func (s *Service) ListEmails(ctx context.Context) ([]EmailTemplate, error) {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := db.Collection(emailsCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list email templates: %w", err)
	}

	var out []EmailTemplate
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode email templates: %w", err)
	}
	return out, nil
}

// ReplaceEmail fully replaces an email template.
func (s *Service) ReplaceEmail(ctx context.Context, id string, req EmailRequest) (*EmailTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	db, err := s.dbs.Current(ctx)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"name":       strings.TrimSpace(req.Name),
		"subject":    strings.TrimSpace(req.Subject),
		"body_html":  req.BodyHTML,
		"tag":        strings.TrimSpace(req.Tag),
		"updated_at": time.Now().UTC(),
	}

	var tpl EmailTemplate
	err = db.Collection(emailsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&tpl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("replace email template %s: %w", id, err)
	}
	return &tpl, nil
}

// DeleteEmail removes an email template.
func (s *Service) DeleteEmail(ctx context.Context, id string) error {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return err
	}

	res, err := db.Collection(emailsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete email template %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SendTest delivers an email template to a single recipient so admins can
// preview it in a real inbox.
func (s *Service) SendTest(ctx context.Context, id, recipient string) error {
	tpl, err := s.GetEmail(ctx, id)
	if err != nil {
		return err
	}

	msg := email.Message{
		To:       recipient,
		Subject:  "[TEST] " + tpl.Subject,
		BodyHTML: tpl.BodyHTML,
		Tag:      tpl.Tag,
	}
	if err := msg.Validate(); err != nil {
		return response.ValidationError{"send_to": {"must be a valid email address"}}
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send test email for template %s: %w", id, err)
	}

	s.log.InfoContext(ctx, "test email sent", "template_id", id, "recipient", recipient)
	return nil
}
