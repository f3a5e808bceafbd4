package usecase

import (
	"context"
	"log/slog"
	"sync"

	"session-hub/internal/domain"

	"github.com/google/uuid"
)

// Session is the single source of truth for the current authenticated
// identity. It orchestrates the auth operations, holds the identity and
// token in memory and mirrors them into the credential store.
//
// Session-mutating operations are guarded by a monotonic operation
// sequence: each mutating call takes a sequence number at initiation and
// its result commits only if no later operation has started since. The
// most recently initiated operation wins; a superseded login reports
// domain.ErrLoginSuperseded and leaves no trace.
//
// The guard covers the credential store too: store writes are serialized
// by storeMu and re-checked against the sequence right before they run,
// so a stalled write can never land after a newer operation's write and
// leave the store mirroring a login that already lost.
type Session struct {
	gateway domain.AuthGateway
	store   domain.CredentialStore
	logger  *slog.Logger

	mu        sync.Mutex
	seq       uint64
	sessionID string
	identity  *domain.Identity
	token     string

	storeMu sync.Mutex
}

// NewSession creates an empty session. State always starts empty; the
// credential store is written on login/logout and read back only for the
// remembered username, never to restore a session.
func NewSession(g domain.AuthGateway, s domain.CredentialStore, l *slog.Logger) *Session {
	return &Session{gateway: g, store: s, logger: l}
}

// begin reserves the next operation sequence number.
func (s *Session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Login authenticates against the auth API. On success the identity and
// token are set together, persisted to the credential store, and the
// remembered username slot is updated per rememberMe.
func (s *Session) Login(ctx context.Context, username, password string, rememberMe bool) (*domain.SessionState, error) {
	seq := s.begin()

	result, err := s.gateway.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "login result discarded, newer operation in flight",
			"username", username)
		return nil, domain.ErrLoginSuperseded
	}
	state := domain.SessionState{
		SessionID: uuid.NewString(),
		Identity:  result.Identity,
		Token:     result.Token,
	}
	s.sessionID = state.SessionID
	s.identity = &result.Identity
	s.token = result.Token
	s.mu.Unlock()

	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	s.mu.Lock()
	if seq != s.seq {
		// A newer operation started before this login could persist; it
		// owns the store slots now. Drop this login's in-memory commit
		// too if it is still the visible one.
		if s.sessionID == state.SessionID {
			s.sessionID = ""
			s.identity = nil
			s.token = ""
		}
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "login superseded before persisting, store write skipped",
			"username", username)
		return nil, domain.ErrLoginSuperseded
	}
	s.mu.Unlock()

	// Persistence failures do not undo the login: the remote session is
	// established either way. They are logged and the in-memory state stands.
	if err := s.store.SaveSession(ctx, result.Token, result.Identity); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist session", "error", err)
	}

	if rememberMe {
		if err := s.store.SetRememberedUsername(ctx, username); err != nil {
			s.logger.ErrorContext(ctx, "failed to remember username", "error", err)
		}
	} else {
		if err := s.store.DeleteRememberedUsername(ctx); err != nil {
			s.logger.ErrorContext(ctx, "failed to forget username", "error", err)
		}
	}

	s.logger.InfoContext(ctx, "login succeeded",
		"user_id", result.Identity.ID,
		"session_id", state.SessionID)
	return &state, nil
}

// Register delegates to the auth API. No local state is mutated on
// success; the caller navigates the user to login.
func (s *Session) Register(ctx context.Context, username, password, email string) error {
	return s.gateway.Register(ctx, username, password, email)
}

// Logout clears the in-memory identity and token together and removes the
// persisted slots. No remote call is made. Logout always succeeds: memory
// is cleared unconditionally and a store removal failure is only logged.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.sessionID = ""
	s.identity = nil
	s.token = ""
	s.mu.Unlock()

	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	s.mu.Lock()
	current := seq == s.seq
	s.mu.Unlock()
	if !current {
		// A newer operation owns the store slots; deleting them here
		// would wipe out its session.
		return nil
	}

	if err := s.store.ClearSession(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear persisted session", "error", err)
	}
	return nil
}

// RequestPasswordReset asks the auth API to send a verification code.
func (s *Session) RequestPasswordReset(ctx context.Context, email string) error {
	return s.gateway.RequestPasswordReset(ctx, email)
}

// ConfirmPasswordReset finalizes a password reset with the delivered code.
func (s *Session) ConfirmPasswordReset(ctx context.Context, email, verifyCode, newPassword string) error {
	return s.gateway.ConfirmPasswordReset(ctx, email, verifyCode, newPassword)
}

// Current returns a snapshot of the session state. The second return is
// false while no one is logged in.
func (s *Session) Current() (*domain.SessionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return nil, false
	}
	identity := *s.identity
	return &domain.SessionState{
		SessionID: s.sessionID,
		Identity:  identity,
		Token:     s.token,
	}, true
}

// RememberedUsername reads the remembered username slot. Returns "" when
// nothing was remembered. This is the only read the session ever performs
// against the credential store.
func (s *Session) RememberedUsername(ctx context.Context) (string, error) {
	return s.store.RememberedUsername(ctx)
}
