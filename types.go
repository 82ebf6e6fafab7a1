package authcore

import (
	"context"

	"github.com/vendora/authcore/permission"
)

// Identity is the caller as established by Verify: enough to make
// permission decisions without another directory read.
type Identity struct {
	UserID    string
	Role      permission.Role
	SessionID string
	Email     string
}

// UserRecord is the directory's view of one user. PasswordHash is the
// stored PHC string, empty for external-identity-only accounts.
type UserRecord struct {
	UserID       string
	Role         permission.Role
	Email        string
	ExternalID   string
	IsActive     bool
	PasswordHash string
}

// UserDirectory is the collaborator that owns user records. The engine
// reads identities and writes only credential hashes through it; role
// changes go through the gate instead.
type UserDirectory interface {
	GetUserByID(ctx context.Context, userID string) (*UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*UserRecord, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// TokenPair is one access+refresh issuance.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned by Login, LoginExternal, and Refresh.
type LoginResult struct {
	Identity  Identity
	SessionID string
	Tokens    TokenPair
}
