// Package session stores one server-side record per logical login, bound to
// a user id and independent of any single token's lifetime.
package session
