package mongodb

import (
	"time"

	"github.com/warekit/warekit/pkg/tenant"
)

// Config holds the central database location and the pool defaults applied
// to every client the factory creates. Per-tenant connection records may
// override the pool bounds and write behavior.
type Config struct {
	CentralURL      string        `env:"MONGODB_CENTRAL_URL,required"`                 // CentralURL is the connection URI of the central database.
	CentralDatabase string        `env:"MONGODB_CENTRAL_DATABASE" envDefault:"warekit_central"` // CentralDatabase is the central database name.
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`    // ConnectTimeout is the timeout for establishing connections.
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`      // MaxPoolSize is the default maximum number of pooled connections per client.
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`        // MinPoolSize is the default minimum number of pooled connections per client.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"` // MaxConnIdleTime is how long a pooled connection may sit idle.
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true"`      // RetryWrites specifies whether to retry write operations.
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true"`       // RetryReads specifies whether to retry read operations.
}

// CentralBinding returns the routing binding for the central database.
func (c Config) CentralBinding() tenant.Binding {
	return tenant.Binding{
		URI:      c.CentralURL,
		Database: c.CentralDatabase,
	}
}
