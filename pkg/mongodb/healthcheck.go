package mongodb

import (
	"context"
	"errors"
)

// Healthcheck returns a health check function suitable for readiness and
// liveness probes. It pings the central database; tenant databases are
// deliberately not probed, since a single unreachable tenant must not mark
// the whole service unhealthy.
func Healthcheck(f *Factory) func(context.Context) error {
	return func(ctx context.Context) error {
		client, err := f.Client(f.cfg.CentralURL)
		if err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
