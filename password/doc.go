// Package password hashes and verifies user credentials with argon2id,
// stored as PHC strings so cost parameters can be raised without breaking
// existing credentials.
package password
