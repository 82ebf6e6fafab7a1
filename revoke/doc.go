// Package revoke implements the token revocation registry: a keyed TTL
// store of token fingerprints (never raw tokens) consulted before any
// signature or claims check. Entries expire when the underlying token
// would have, which bounds registry growth under both backends.
package revoke
