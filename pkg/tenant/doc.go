// Package tenant implements per-request database routing for multi-tenant
// deployments where every tenant owns an isolated database.
//
// The package has three parts that together decide, per inbound request,
// which physical database the request is bound to:
//
//   - Binding and its context helpers carry the resolved connection for
//     one request. The binding travels on the request context, so it can
//     never outlive the request or leak into a concurrently executing
//     request served by the same worker pool.
//
//   - Registry maps tenant IDs to connection records, backed by a central
//     store and fronted by a cache (in-memory by default, Redis for
//     multi-node deployments).
//
//   - Middleware inspects each request, routes configured central path
//     prefixes straight to the central database, and resolves everything
//     else through the Registry before binding the connection into the
//     request context.
//
// # Usage
//
//	registry := tenant.NewRegistry(store)
//	r := chi.NewRouter()
//	r.Use(tenant.Middleware(registry, centralBinding,
//		tenant.WithCentralPaths("/v1/tenants", "/healthz"),
//	))
//
// Downstream code reads the binding back with BindingFromContext; database
// accessors must re-read it on every call rather than caching a handle.
//
// # Error Handling
//
// Routing failures are resolved entirely inside the middleware and mapped
// to HTTP statuses: 401 for a missing, malformed or unknown tenant
// identifier, 500 when the central store is unreachable. A missing
// binding observed downstream (ErrNoBindingInContext) is a programming
// error — a path that bypassed the router — and is never recovered from
// by guessing a default database.
package tenant
