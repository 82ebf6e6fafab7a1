package authcore

import "errors"

// Error kinds returned by the engine. Callers branch with errors.Is; the
// engine never reveals field-level credential detail through these.
var (
	// ErrInvalidCredentials covers every login failure mode: unknown email,
	// wrong password, missing external identity, inactive account. One error
	// for all of them prevents user enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired reports a token past its exp claim.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked reports a token or token family on the revocation
	// registry.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrTokenMalformed reports a token that failed parsing or signature
	// verification.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrWrongTokenType reports an access token presented where a refresh
	// token was required, or the reverse.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrSessionInvalid reports a token whose session is absent, expired, or
	// bound to a different user.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrAccessDenied reports a permission or tenant-access refusal.
	ErrAccessDenied = errors.New("access denied")

	// ErrRoleChanged reports a token minted under a role the user no longer
	// holds; the caller must re-authenticate.
	ErrRoleChanged = errors.New("role changed since token issuance")

	// ErrBackendUnavailable reports a durable-cache failure that could not
	// be absorbed by the in-process fallback.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrConfiguration reports an invalid configuration at build time.
	ErrConfiguration = errors.New("configuration error")

	// ErrEngineNotReady reports use of an engine that was never built.
	ErrEngineNotReady = errors.New("engine not ready")
)
