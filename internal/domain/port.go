package domain

import "context"

// AuthGateway performs the four remote operations against the auth API.
type AuthGateway interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Register(ctx context.Context, username, password, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, verifyCode, newPassword string) error
}

// CredentialStore provides durable key-value persistence for the session
// slots. SaveSession and ClearSession act on the token and identity slots
// together; the remembered username has its own lifecycle.
type CredentialStore interface {
	SaveSession(ctx context.Context, token string, identity Identity) error
	ClearSession(ctx context.Context) error
	SetRememberedUsername(ctx context.Context, username string) error
	DeleteRememberedUsername(ctx context.Context) error
	RememberedUsername(ctx context.Context) (string, error)
}

// TokenIssuer mints signed backend tokens for downstream services.
type TokenIssuer interface {
	IssueBackendToken(identity *Identity, sessionID string) (string, error)
}
