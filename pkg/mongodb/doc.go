// Package mongodb provides the database accessor for tenant-routed
// requests: a client pool keyed by connection URI plus a Current accessor
// that resolves the live target from the request context on every call.
//
// Tenant connections are long-lived and reused across many requests from
// many users. Creating a client per request would exhaust connections and
// add latency; the factory amortizes construction while still honoring
// per-request routing, because the pool lookup key is re-derived from the
// context each time.
package mongodb
