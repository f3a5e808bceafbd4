package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"session-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGateway implements domain.AuthGateway for testing.
type mockGateway struct {
	mu          sync.Mutex
	loginCalls  int
	result      *domain.LoginResult
	err         error
	loginHook   func(username string) (*domain.LoginResult, error)
	registerErr error
	resetReqErr error
	resetCfmErr error
}

func (m *mockGateway) Login(_ context.Context, username, _ string) (*domain.LoginResult, error) {
	m.mu.Lock()
	m.loginCalls++
	hook := m.loginHook
	m.mu.Unlock()

	if hook != nil {
		return hook(username)
	}
	return m.result, m.err
}

func (m *mockGateway) Register(_ context.Context, _, _, _ string) error {
	return m.registerErr
}

func (m *mockGateway) RequestPasswordReset(_ context.Context, _ string) error {
	return m.resetReqErr
}

func (m *mockGateway) ConfirmPasswordReset(_ context.Context, _, _, _ string) error {
	return m.resetCfmErr
}

// mockStore implements domain.CredentialStore and records its slots.
type mockStore struct {
	mu         sync.Mutex
	token      string
	identity   *domain.Identity
	remembered string
	saveErr    error
	clearErr   error
	saveHook   func(token string)
}

func (m *mockStore) SaveSession(_ context.Context, token string, identity domain.Identity) error {
	m.mu.Lock()
	hook := m.saveHook
	m.mu.Unlock()
	if hook != nil {
		hook(token)
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.identity = &identity
	return nil
}

func (m *mockStore) storedToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *mockStore) ClearSession(_ context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.identity = nil
	return nil
}

func (m *mockStore) SetRememberedUsername(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remembered = username
	return nil
}

func (m *mockStore) DeleteRememberedUsername(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remembered = ""
	return nil
}

func (m *mockStore) RememberedUsername(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remembered, nil
}

func aliceResult() *domain.LoginResult {
	return &domain.LoginResult{
		Token: "tok-123",
		Identity: domain.Identity{
			ID:       "1",
			Username: "alice",
			Email:    "a@x.com",
		},
	}
}

func TestSession_Login_SetsStateAndPersists(t *testing.T) {
	gw := &mockGateway{result: aliceResult()}
	st := &mockStore{}
	s := NewSession(gw, st, slog.Default())

	state, err := s.Login(context.Background(), "alice", "secret1", false)

	require.NoError(t, err)
	assert.Equal(t, "tok-123", state.Token)
	assert.Equal(t, "1", state.Identity.ID)
	assert.Equal(t, "alice", state.Identity.Username)
	assert.Equal(t, "a@x.com", state.Identity.Email)
	assert.NotEmpty(t, state.SessionID)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, state.Token, current.Token)
	assert.Equal(t, state.Identity, current.Identity)

	assert.Equal(t, "tok-123", st.token)
	require.NotNil(t, st.identity)
	assert.Equal(t, "alice", st.identity.Username)
}

func TestSession_Login_FailureLeavesStateEmpty(t *testing.T) {
	gw := &mockGateway{err: domain.ErrAuthenticationFailed}
	st := &mockStore{}
	s := NewSession(gw, st, slog.Default())

	state, err := s.Login(context.Background(), "alice", "wrong", false)

	assert.Nil(t, state)
	assert.True(t, errors.Is(err, domain.ErrAuthenticationFailed))

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, st.token)
	assert.Nil(t, st.identity)
}

func TestSession_Login_RememberMe(t *testing.T) {
	gw := &mockGateway{result: aliceResult()}
	st := &mockStore{}
	s := NewSession(gw, st, slog.Default())

	_, err := s.Login(context.Background(), "alice", "secret1", true)
	require.NoError(t, err)

	remembered, err := s.RememberedUsername(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", remembered)

	// Logging in without rememberMe forgets the previous choice.
	_, err = s.Login(context.Background(), "alice", "secret1", false)
	require.NoError(t, err)

	remembered, err = s.RememberedUsername(context.Background())
	require.NoError(t, err)
	assert.Empty(t, remembered)
}

func TestSession_Login_StoreFailureDoesNotUndoLogin(t *testing.T) {
	gw := &mockGateway{result: aliceResult()}
	st := &mockStore{saveErr: domain.ErrStoreUnavailable}
	s := NewSession(gw, st, slog.Default())

	state, err := s.Login(context.Background(), "alice", "secret1", false)

	require.NoError(t, err)
	assert.Equal(t, "tok-123", state.Token)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "tok-123", current.Token)
}

func TestSession_Logout_ClearsEverything(t *testing.T) {
	gw := &mockGateway{result: aliceResult()}
	st := &mockStore{}
	s := NewSession(gw, st, slog.Default())

	_, err := s.Login(context.Background(), "alice", "secret1", false)
	require.NoError(t, err)

	require.NoError(t, s.Logout(context.Background()))

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, st.token)
	assert.Nil(t, st.identity)
}

func TestSession_Logout_WithoutLoginIsHarmless(t *testing.T) {
	s := NewSession(&mockGateway{}, &mockStore{}, slog.Default())

	assert.NoError(t, s.Logout(context.Background()))

	_, ok := s.Current()
	assert.False(t, ok)
}

// Logout always succeeds: the in-memory state is gone even when the store
// removal fails, and no error surfaces to the caller.
func TestSession_Logout_StoreFailureStillSucceeds(t *testing.T) {
	gw := &mockGateway{result: aliceResult()}
	st := &mockStore{clearErr: domain.ErrStoreUnavailable}
	s := NewSession(gw, st, slog.Default())

	_, err := s.Login(context.Background(), "alice", "secret1", false)
	require.NoError(t, err)

	assert.NoError(t, s.Logout(context.Background()))

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_LoginLogoutLogin_RoundTrip(t *testing.T) {
	gw := &mockGateway{result: aliceResult()}
	st := &mockStore{}
	s := NewSession(gw, st, slog.Default())

	first, err := s.Login(context.Background(), "alice", "secret1", false)
	require.NoError(t, err)

	require.NoError(t, s.Logout(context.Background()))

	second, err := s.Login(context.Background(), "alice", "secret1", false)
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, first.Identity, second.Identity)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, second.Identity, current.Identity)
	assert.Equal(t, "tok-123", st.token)
}

func TestSession_Login_SupersededByNewerLogin(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)

	gw := &mockGateway{}
	gw.loginHook = func(username string) (*domain.LoginResult, error) {
		started <- struct{}{}
		if username == "slow" {
			<-release
			return &domain.LoginResult{
				Token:    "tok-slow",
				Identity: domain.Identity{ID: "slow-id", Username: "slow"},
			}, nil
		}
		return &domain.LoginResult{
			Token:    "tok-fast",
			Identity: domain.Identity{ID: "fast-id", Username: "fast"},
		}, nil
	}

	st := &mockStore{}
	s := NewSession(gw, st, slog.Default())

	slowErr := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), "slow", "pw", false)
		slowErr <- err
	}()

	// Wait until the slow login is in flight, then run a second login to
	// completion. The slow one initiated earlier, so its result must lose.
	<-started
	_, err := s.Login(context.Background(), "fast", "pw", false)
	require.NoError(t, err)
	<-started

	close(release)

	select {
	case err := <-slowErr:
		assert.True(t, errors.Is(err, domain.ErrLoginSuperseded))
	case <-time.After(2 * time.Second):
		t.Fatal("slow login did not finish")
	}

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "tok-fast", current.Token)
	assert.Equal(t, "fast-id", current.Identity.ID)
	assert.Equal(t, "tok-fast", st.token)
}

func TestSession_Login_SupersededByLogout(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	gw := &mockGateway{}
	gw.loginHook = func(string) (*domain.LoginResult, error) {
		started <- struct{}{}
		<-release
		return aliceResult(), nil
	}

	st := &mockStore{}
	s := NewSession(gw, st, slog.Default())

	loginErr := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), "alice", "secret1", false)
		loginErr <- err
	}()

	<-started
	require.NoError(t, s.Logout(context.Background()))
	close(release)

	select {
	case err := <-loginErr:
		assert.True(t, errors.Is(err, domain.ErrLoginSuperseded))
	case <-time.After(2 * time.Second):
		t.Fatal("login did not finish")
	}

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, st.token)
}

// A login whose store write stalls must not let that write land after a
// newer login already persisted: the store has to end up holding the same
// token as the in-memory state.
func TestSession_Login_StalledPersistKeepsStoreConsistent(t *testing.T) {
	release := make(chan struct{})
	persisting := make(chan struct{}, 1)

	gw := &mockGateway{}
	gw.loginHook = func(username string) (*domain.LoginResult, error) {
		return &domain.LoginResult{
			Token:    "tok-" + username,
			Identity: domain.Identity{ID: username + "-id", Username: username},
		}, nil
	}

	st := &mockStore{}
	st.saveHook = func(token string) {
		if token == "tok-slow" {
			persisting <- struct{}{}
			<-release
		}
	}

	s := NewSession(gw, st, slog.Default())

	slowErr := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), "slow", "pw", false)
		slowErr <- err
	}()

	// Wait until the first login is inside its store write, then start a
	// second one. It commits memory and must queue behind the stalled write.
	<-persisting

	fastErr := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), "fast", "pw", false)
		fastErr <- err
	}()

	require.Eventually(t, func() bool {
		current, ok := s.Current()
		return ok && current.Token == "tok-fast"
	}, 2*time.Second, 5*time.Millisecond)

	close(release)

	for _, ch := range []chan error{slowErr, fastErr} {
		select {
		case err := <-ch:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("login did not finish")
		}
	}

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "tok-fast", current.Token)
	assert.Equal(t, "tok-fast", st.storedToken())
}

// A login that loses to a newer operation after committing memory but
// before persisting must skip the store write entirely and report itself
// superseded, leaving neither memory nor the store holding its token.
func TestSession_Login_SupersededBeforePersistLeavesNoTrace(t *testing.T) {
	release := make(chan struct{})
	persisting := make(chan struct{}, 1)

	gw := &mockGateway{}
	gw.loginHook = func(username string) (*domain.LoginResult, error) {
		return &domain.LoginResult{
			Token:    "tok-" + username,
			Identity: domain.Identity{ID: username + "-id", Username: username},
		}, nil
	}

	st := &mockStore{}
	st.saveHook = func(token string) {
		if token == "tok-first" {
			persisting <- struct{}{}
			<-release
		}
	}

	s := NewSession(gw, st, slog.Default())

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), "first", "pw", false)
		firstErr <- err
	}()

	<-persisting

	// The second login commits memory and queues behind the stalled write.
	secondErr := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), "second", "pw", false)
		secondErr <- err
	}()

	require.Eventually(t, func() bool {
		current, ok := s.Current()
		return ok && current.Token == "tok-second"
	}, 2*time.Second, 5*time.Millisecond)

	// Logout initiates after both logins, so it wins; the second login's
	// queued store write must now be skipped.
	logoutErr := make(chan error, 1)
	go func() {
		logoutErr <- s.Logout(context.Background())
	}()

	require.Eventually(t, func() bool {
		_, ok := s.Current()
		return !ok
	}, 2*time.Second, 5*time.Millisecond)

	close(release)

	select {
	case err := <-secondErr:
		assert.True(t, errors.Is(err, domain.ErrLoginSuperseded))
	case <-time.After(2 * time.Second):
		t.Fatal("second login did not finish")
	}
	select {
	case err := <-logoutErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("logout did not finish")
	}
	<-firstErr

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, st.storedToken())
}

func TestSession_Register_NoStateMutation(t *testing.T) {
	gw := &mockGateway{}
	st := &mockStore{}
	s := NewSession(gw, st, slog.Default())

	require.NoError(t, s.Register(context.Background(), "bob", "pw12345", "b@x.com"))

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, st.token)
}

func TestSession_Register_ConflictPropagates(t *testing.T) {
	gw := &mockGateway{registerErr: domain.ErrRegistrationRejected}
	s := NewSession(gw, &mockStore{}, slog.Default())

	err := s.Register(context.Background(), "bob", "pw12345", "b@x.com")

	assert.True(t, errors.Is(err, domain.ErrRegistrationRejected))

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_PasswordReset_Delegates(t *testing.T) {
	gw := &mockGateway{}
	s := NewSession(gw, &mockStore{}, slog.Default())

	assert.NoError(t, s.RequestPasswordReset(context.Background(), "a@x.com"))
	assert.NoError(t, s.ConfirmPasswordReset(context.Background(), "a@x.com", "000111", "newpass1"))

	gw.resetReqErr = domain.ErrResetRequestFailed
	gw.resetCfmErr = domain.ErrResetConfirmFailed

	assert.True(t, errors.Is(s.RequestPasswordReset(context.Background(), "a@x.com"), domain.ErrResetRequestFailed))
	assert.True(t, errors.Is(s.ConfirmPasswordReset(context.Background(), "a@x.com", "0", "p"), domain.ErrResetConfirmFailed))
}
