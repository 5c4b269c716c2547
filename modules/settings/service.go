// Package settings stores per-tenant operational settings: outbound email,
// S3 object storage, and e-commerce behavior. Each category lives in its own
// document in the tenant database; partial updates coalesce field by field.
// Secret fields are encrypted at rest and masked in read responses.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/warekit/warekit/pkg/mongodb"
	"github.com/warekit/warekit/pkg/secrets"
	"github.com/warekit/warekit/pkg/tenant"
)

const settingsCollection = "settings"

const (
	categoryEmail     = "email"
	categoryS3        = "s3"
	categoryEcommerce = "ecommerce"
)

var (
	// ErrVerificationFailed reports that the provided S3 credentials could
	// not access the configured bucket.
	ErrVerificationFailed = errors.New("storage credential verification failed")
)

// EmailSettings configures outbound email for a tenant. SMTPPassword is
// stored encrypted and masked in responses.
type EmailSettings struct {
	Provider     string    `bson:"provider" json:"provider"`
	SMTPHost     string    `bson:"smtp_host" json:"smtp_host"`
	SMTPPort     int       `bson:"smtp_port" json:"smtp_port"`
	SMTPUser     string    `bson:"smtp_user" json:"smtp_user"`
	SMTPPassword string    `bson:"smtp_password" json:"smtp_password"`
	FromEmail    string    `bson:"from_email" json:"from_email"`
	FromName     string    `bson:"from_name" json:"from_name"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// S3Settings configures tenant object storage. SecretKey is stored
// encrypted and masked in responses.
type S3Settings struct {
	Region         string    `bson:"region" json:"region"`
	Bucket         string    `bson:"bucket" json:"bucket"`
	Endpoint       string    `bson:"endpoint" json:"endpoint,omitempty"`
	AccessKeyID    string    `bson:"access_key_id" json:"access_key_id"`
	SecretKey      string    `bson:"secret_key" json:"secret_key"`
	ForcePathStyle bool      `bson:"force_path_style" json:"force_path_style"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// EcommerceSettings tunes order handling for a tenant.
type EcommerceSettings struct {
	OrderPrefix       string    `bson:"order_prefix" json:"order_prefix"`
	DefaultCurrency   string    `bson:"default_currency" json:"default_currency"`
	LowStockThreshold int       `bson:"low_stock_threshold" json:"low_stock_threshold"`
	AutoAllocate      bool      `bson:"auto_allocate" json:"auto_allocate"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}

// EmailPatch is a partial update. Nil fields keep the stored value.
type EmailPatch struct {
	Provider     *string `json:"provider"`
	SMTPHost     *string `json:"smtp_host"`
	SMTPPort     *int    `json:"smtp_port"`
	SMTPUser     *string `json:"smtp_user"`
	SMTPPassword *string `json:"smtp_password"`
	FromEmail    *string `json:"from_email"`
	FromName     *string `json:"from_name"`
}

// Apply coalesces the patch over cur field by field.
func (p EmailPatch) Apply(cur EmailSettings) EmailSettings {
	if p.Provider != nil {
		cur.Provider = *p.Provider
	}
	if p.SMTPHost != nil {
		cur.SMTPHost = *p.SMTPHost
	}
	if p.SMTPPort != nil {
		cur.SMTPPort = *p.SMTPPort
	}
	if p.SMTPUser != nil {
		cur.SMTPUser = *p.SMTPUser
	}
	if p.SMTPPassword != nil {
		cur.SMTPPassword = *p.SMTPPassword
	}
	if p.FromEmail != nil {
		cur.FromEmail = *p.FromEmail
	}
	if p.FromName != nil {
		cur.FromName = *p.FromName
	}
	return cur
}

// S3Patch is a partial update. Nil fields keep the stored value.
type S3Patch struct {
	Region         *string `json:"region"`
	Bucket         *string `json:"bucket"`
	Endpoint       *string `json:"endpoint"`
	AccessKeyID    *string `json:"access_key_id"`
	SecretKey      *string `json:"secret_key"`
	ForcePathStyle *bool   `json:"force_path_style"`
}

// Apply coalesces the patch over cur field by field.
func (p S3Patch) Apply(cur S3Settings) S3Settings {
	if p.Region != nil {
		cur.Region = *p.Region
	}
	if p.Bucket != nil {
		cur.Bucket = *p.Bucket
	}
	if p.Endpoint != nil {
		cur.Endpoint = *p.Endpoint
	}
	if p.AccessKeyID != nil {
		cur.AccessKeyID = *p.AccessKeyID
	}
	if p.SecretKey != nil {
		cur.SecretKey = *p.SecretKey
	}
	if p.ForcePathStyle != nil {
		cur.ForcePathStyle = *p.ForcePathStyle
	}
	return cur
}

// EcommercePatch is a partial update. Nil fields keep the stored value.
type EcommercePatch struct {
	OrderPrefix       *string `json:"order_prefix"`
	DefaultCurrency   *string `json:"default_currency"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
	AutoAllocate      *bool   `json:"auto_allocate"`
}

// Apply coalesces the patch over cur field by field.
func (p EcommercePatch) Apply(cur EcommerceSettings) EcommerceSettings {
	if p.OrderPrefix != nil {
		cur.OrderPrefix = *p.OrderPrefix
	}
	if p.DefaultCurrency != nil {
		cur.DefaultCurrency = *p.DefaultCurrency
	}
	if p.LowStockThreshold != nil {
		cur.LowStockThreshold = *p.LowStockThreshold
	}
	if p.AutoAllocate != nil {
		cur.AutoAllocate = *p.AutoAllocate
	}
	return cur
}

// Service reads and writes tenant settings documents.
type Service struct {
	dbs      *mongodb.Factory
	vault    *secrets.Vault
	verifier BucketVerifier
	log      *slog.Logger
}

// ServiceOption configures the settings service.
type ServiceOption func(*Service)

// WithVerifier overrides the S3 credential verifier. Tests use this to
// avoid real AWS calls.
func WithVerifier(v BucketVerifier) ServiceOption {
	return func(s *Service) { s.verifier = v }
}

// NewService creates the settings service.
func NewService(dbs *mongodb.Factory, vault *secrets.Vault, log *slog.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{dbs: dbs, vault: vault, verifier: &s3Verifier{}, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetEmail returns the tenant email settings with the password masked.
// Unconfigured tenants get zero-valued settings, not an error.
func (s *Service) GetEmail(ctx context.Context) (*EmailSettings, error) {
	var cfg EmailSettings
	if err := s.load(ctx, categoryEmail, &cfg); err != nil {
		return nil, err
	}
	if cfg.SMTPPassword != "" {
		plain, err := s.decrypt(ctx, cfg.SMTPPassword)
		if err != nil {
			return nil, err
		}
		cfg.SMTPPassword = secrets.Mask(plain)
	}
	return &cfg, nil
}

// UpdateEmail applies a partial update. A provided SMTP password is
// encrypted before storage; an omitted one keeps the stored ciphertext.
func (s *Service) UpdateEmail(ctx context.Context, patch EmailPatch) (*EmailSettings, error) {
	var cur EmailSettings
	if err := s.load(ctx, categoryEmail, &cur); err != nil {
		return nil, err
	}

	next := patch.Apply(cur)
	if patch.SMTPPassword != nil {
		enc, err := s.encrypt(ctx, *patch.SMTPPassword)
		if err != nil {
			return nil, err
		}
		next.SMTPPassword = enc
	}
	next.UpdatedAt = time.Now().UTC()

	if err := s.save(ctx, categoryEmail, next); err != nil {
		return nil, err
	}
	return s.GetEmail(ctx)
}

// GetS3 returns the tenant S3 settings with the secret key masked.
func (s *Service) GetS3(ctx context.Context) (*S3Settings, error) {
	var cfg S3Settings
	if err := s.load(ctx, categoryS3, &cfg); err != nil {
		return nil, err
	}
	if cfg.SecretKey != "" {
		plain, err := s.decrypt(ctx, cfg.SecretKey)
		if err != nil {
			return nil, err
		}
		cfg.SecretKey = secrets.Mask(plain)
	}
	return &cfg, nil
}

// UpdateS3 applies a partial update after verifying the resulting
// credentials against the configured bucket. The stored settings are not
// touched when verification fails.
func (s *Service) UpdateS3(ctx context.Context, patch S3Patch) (*S3Settings, error) {
	var cur S3Settings
	if err := s.load(ctx, categoryS3, &cur); err != nil {
		return nil, err
	}

	next := patch.Apply(cur)

	// Verification needs the plaintext secret: either the one just
	// provided or the stored one decrypted.
	verify := next
	if patch.SecretKey == nil && cur.SecretKey != "" {
		plain, err := s.decrypt(ctx, cur.SecretKey)
		if err != nil {
			return nil, err
		}
		verify.SecretKey = plain
	}
	if err := s.verifier.VerifyBucket(ctx, verify); err != nil {
		return nil, err
	}

	if patch.SecretKey != nil {
		enc, err := s.encrypt(ctx, *patch.SecretKey)
		if err != nil {
			return nil, err
		}
		next.SecretKey = enc
	}
	next.UpdatedAt = time.Now().UTC()

	if err := s.save(ctx, categoryS3, next); err != nil {
		return nil, err
	}
	return s.GetS3(ctx)
}

// GetEcommerce returns the tenant e-commerce settings.
func (s *Service) GetEcommerce(ctx context.Context) (*EcommerceSettings, error) {
	var cfg EcommerceSettings
	if err := s.load(ctx, categoryEcommerce, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateEcommerce applies a partial update.
func (s *Service) UpdateEcommerce(ctx context.Context, patch EcommercePatch) (*EcommerceSettings, error) {
	var cur EcommerceSettings
	if err := s.load(ctx, categoryEcommerce, &cur); err != nil {
		return nil, err
	}

	next := patch.Apply(cur)
	next.UpdatedAt = time.Now().UTC()

	if err := s.save(ctx, categoryEcommerce, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *Service) load(ctx context.Context, category string, out any) error {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return err
	}

	err = db.Collection(settingsCollection).FindOne(ctx, bson.M{"_id": category}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s settings: %w", category, err)
	}
	return nil
}

func (s *Service) save(ctx context.Context, category string, doc any) error {
	db, err := s.dbs.Current(ctx)
	if err != nil {
		return err
	}

	_, err = db.Collection(settingsCollection).ReplaceOne(ctx,
		bson.M{"_id": category}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save %s settings: %w", category, err)
	}
	return nil
}

func (s *Service) encrypt(ctx context.Context, plaintext string) (string, error) {
	id, ok := tenant.IDFromContext(ctx)
	if !ok {
		return "", tenant.ErrMissingTenantID
	}
	return s.vault.EncryptString(id, plaintext)
}

func (s *Service) decrypt(ctx context.Context, ciphertext string) (string, error) {
	id, ok := tenant.IDFromContext(ctx)
	if !ok {
		return "", tenant.ErrMissingTenantID
	}
	return s.vault.DecryptString(id, ciphertext)
}
