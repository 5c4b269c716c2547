package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender writes emails to disk instead of sending them. Used in local
// development where no Postmark tokens are configured.
type DevSender struct {
	dir string
}

// NewDevSender creates a development sender; the directory is created on
// first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

func (d *DevSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %v", ErrSendFailed, err)
	}

	name := fmt.Sprintf("%s_%s.html", time.Now().Format("2006_01_02_150405"), sanitizeFilename(msg.Subject))
	if err := os.WriteFile(filepath.Join(d.dir, name), []byte(msg.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: write file: %v", ErrSendFailed, err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeChars.ReplaceAllString(s, "")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
