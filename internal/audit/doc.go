// Package audit carries structured audit events from the auth core to an
// embedder-supplied sink through a non-blocking dispatcher.
package audit
