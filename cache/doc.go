// Package cache provides the keyed TTL store behind the session store and
// revocation registry: a Redis backend for durable deployments, an
// in-process go-cache backend as the fallback, and a wrapper that degrades
// from the former to the latter when Redis is unreachable.
package cache
