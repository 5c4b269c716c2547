package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"

	"github.com/warekit/warekit/pkg/tenant"
)

// Factory hands out database handles for whatever connection the current
// request is routed to. It is a long-lived singleton, but it never caches
// "the database": every Current call re-reads the routing binding from the
// context, because the correct target changes from request to request.
//
// Clients are pooled by connection URI and shared across all requests that
// target the same tenant. At most one live client exists per distinct URI;
// clients are only torn down by Close at shutdown, never mid-request.
type Factory struct {
	cfg Config

	mu      sync.Mutex
	clients map[string]*mongo.Client
}

// NewFactory creates a factory with the given pool defaults. No clients
// are constructed here — eager construction would bind to whatever
// connection happened to be configured at startup.
func NewFactory(cfg Config) *Factory {
	return &Factory{
		cfg:     cfg,
		clients: make(map[string]*mongo.Client),
	}
}

// Current returns a handle to the database the current request is routed
// to. A context without a routing binding means the router did not run for
// this path, or a component is executing outside request scope; that is
// surfaced as ErrNoRoutingContext and must not be papered over with a
// default database.
func (f *Factory) Current(ctx context.Context) (*mongo.Database, error) {
	b, err := tenant.BindingFromContext(ctx)
	if err != nil {
		return nil, errors.Join(ErrNoRoutingContext, err)
	}

	client, err := f.clientFor(b.URI, clientTuning{
		maxPoolSize:  b.MaxPoolSize,
		minPoolSize:  b.MinPoolSize,
		retryWrites:  b.RetryWrites,
		writeConcern: b.WriteConcern,
	})
	if err != nil {
		return nil, err
	}
	return client.Database(b.Database), nil
}

// Central returns a handle to the central database, bypassing request
// routing. Only components that are central by definition — the tenant
// connection store itself, provisioning — may use it.
func (f *Factory) Central() (*mongo.Database, error) {
	client, err := f.Client(f.cfg.CentralURL)
	if err != nil {
		return nil, err
	}
	return client.Database(f.cfg.CentralDatabase), nil
}

// Client returns the pooled client for a URI, creating it with the
// configured defaults on first use.
func (f *Factory) Client(uri string) (*mongo.Client, error) {
	return f.clientFor(uri, clientTuning{})
}

// clientTuning carries per-tenant overrides for client construction.
// Zero values fall back to the factory defaults.
type clientTuning struct {
	maxPoolSize  uint64
	minPoolSize  uint64
	retryWrites  bool
	writeConcern string
}

// clientFor implements get-or-create under a single lock. Client
// construction in the driver is lazy and does no I/O, so holding the lock
// across it is cheap and guarantees concurrent callers for the same unseen
// URI cannot race to create duplicates.
func (f *Factory) clientFor(uri string, t clientTuning) (*mongo.Client, error) {
	if uri == "" {
		return nil, ErrEmptyURI
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[uri]; ok {
		return client, nil
	}

	maxPool := f.cfg.MaxPoolSize
	if t.maxPoolSize > 0 {
		maxPool = t.maxPoolSize
	}
	minPool := f.cfg.MinPoolSize
	if t.minPoolSize > 0 {
		minPool = t.minPoolSize
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(f.cfg.ConnectTimeout).
		SetMaxPoolSize(maxPool).
		SetMinPoolSize(minPool).
		SetMaxConnIdleTime(f.cfg.MaxConnIdleTime).
		SetRetryWrites(f.cfg.RetryWrites || t.retryWrites).
		SetRetryReads(f.cfg.RetryReads)

	if wc := parseWriteConcern(t.writeConcern); wc != nil {
		opts = opts.SetWriteConcern(wc)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, errors.Join(ErrFailedToConnect, fmt.Errorf("uri %q: %w", uri, err))
	}

	f.clients[uri] = client
	return client, nil
}

// parseWriteConcern maps a record's write concern string onto driver
// options. Unknown values mean "use the deployment default".
func parseWriteConcern(s string) *writeconcern.WriteConcern {
	switch s {
	case "":
		return nil
	case "majority":
		return writeconcern.Majority()
	default:
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return &writeconcern.WriteConcern{W: n}
		}
		return nil
	}
}

// Close disconnects every pooled client. Called once at shutdown, after
// the HTTP server has stopped accepting requests.
func (f *Factory) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for uri, client := range f.clients {
		if err := client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect %q: %w", uri, err))
		}
		delete(f.clients, uri)
	}
	return errors.Join(errs...)
}
