package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warekit/warekit/modules/settings"
)

func ptr[T any](v T) *T { return &v }

func TestEmailPatch_Apply(t *testing.T) {
	t.Parallel()

	cur := settings.EmailSettings{
		Provider:     "smtp",
		SMTPHost:     "mail.old.example",
		SMTPPort:     587,
		SMTPUser:     "ops",
		SMTPPassword: "stored-cipher",
		FromEmail:    "noreply@old.example",
		FromName:     "Old Corp",
	}

	t.Run("empty patch keeps everything", func(t *testing.T) {
		t.Parallel()

		got := settings.EmailPatch{}.Apply(cur)
		assert.Equal(t, cur, got)
	})

	t.Run("only provided fields change", func(t *testing.T) {
		t.Parallel()

		got := settings.EmailPatch{
			SMTPHost: ptr("mail.new.example"),
			SMTPPort: ptr(465),
		}.Apply(cur)

		assert.Equal(t, "mail.new.example", got.SMTPHost)
		assert.Equal(t, 465, got.SMTPPort)
		assert.Equal(t, "ops", got.SMTPUser)
		assert.Equal(t, "stored-cipher", got.SMTPPassword)
		assert.Equal(t, "smtp", got.Provider)
	})

	t.Run("explicit empty string clears a field", func(t *testing.T) {
		t.Parallel()

		got := settings.EmailPatch{FromName: ptr("")}.Apply(cur)
		assert.Empty(t, got.FromName)
		assert.Equal(t, "noreply@old.example", got.FromEmail)
	})
}

func TestS3Patch_Apply(t *testing.T) {
	t.Parallel()

	cur := settings.S3Settings{
		Region:      "eu-west-1",
		Bucket:      "old-bucket",
		AccessKeyID: "AKIAOLD",
		SecretKey:   "stored-cipher",
	}

	got := settings.S3Patch{
		Bucket:         ptr("new-bucket"),
		ForcePathStyle: ptr(true),
	}.Apply(cur)

	assert.Equal(t, "new-bucket", got.Bucket)
	assert.True(t, got.ForcePathStyle)
	assert.Equal(t, "eu-west-1", got.Region)
	assert.Equal(t, "AKIAOLD", got.AccessKeyID)
	assert.Equal(t, "stored-cipher", got.SecretKey)
}

func TestEcommercePatch_Apply(t *testing.T) {
	t.Parallel()

	cur := settings.EcommerceSettings{
		OrderPrefix:       "ORD",
		DefaultCurrency:   "EUR",
		LowStockThreshold: 10,
		AutoAllocate:      true,
	}

	t.Run("numeric zero is a real value", func(t *testing.T) {
		t.Parallel()

		got := settings.EcommercePatch{LowStockThreshold: ptr(0)}.Apply(cur)
		assert.Zero(t, got.LowStockThreshold)
		assert.Equal(t, "ORD", got.OrderPrefix)
	})

	t.Run("false overrides true", func(t *testing.T) {
		t.Parallel()

		got := settings.EcommercePatch{AutoAllocate: ptr(false)}.Apply(cur)
		assert.False(t, got.AutoAllocate)
	})
}
