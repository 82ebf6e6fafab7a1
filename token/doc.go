// Package token issues and verifies the platform's two JWT classes. Access
// tokens are short-lived, self-contained request credentials; refresh tokens
// are longer-lived rotation credentials carrying a family id and version
// counter. The two classes are signed with distinct keys and distinct
// audiences so neither can stand in for the other.
package token
