// Package internal holds helpers shared across the module that are not part
// of its public surface.
package internal
