// Package authcore is the authentication, session, and authorization core
// of a multi-tenant commerce platform: JWT access/refresh issuance with
// single-use rotation, a revocation registry, server-side sessions, static
// role-based permissions, and a tenant access gate over the data layer.
//
// Construct an engine through [Builder]; all collaborators (user directory,
// membership source, datastore, cache backend, audit sink) are injected
// there. Without a Redis client the session store and revocation registry
// run on an in-process store, which is a supported degraded mode rather
// than an error.
package authcore
