// Package tenant gates every data operation behind tenant-scope injection
// and a permission check, and audits each call with a redacted payload.
package tenant
