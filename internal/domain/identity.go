package domain

import "time"

// Identity is the authenticated user's profile as issued by the auth API.
// It is created on a successful login and read-only until the next login
// replaces it or a logout clears it.
type Identity struct {
	ID        string
	Username  string
	Email     string
	LastLogin *time.Time
}

// LoginResult pairs an identity with the opaque session token the auth API
// issued for it. Token and identity travel together; the session store
// never holds one without the other.
type LoginResult struct {
	Token    string
	Identity Identity
}

// SessionState is a snapshot of the hub's current session: the local
// session ID assigned at login, the identity and the remote token.
type SessionState struct {
	SessionID string
	Identity  Identity
	Token     string
}
