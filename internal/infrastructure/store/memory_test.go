package store

import (
	"context"
	"testing"

	"session-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SessionLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	identity := domain.Identity{ID: "1", Username: "alice", Email: "a@x.com"}
	require.NoError(t, s.SaveSession(ctx, "tok-123", identity))

	token, stored := s.Session()
	assert.Equal(t, "tok-123", token)
	require.NotNil(t, stored)
	assert.Equal(t, identity, *stored)

	require.NoError(t, s.ClearSession(ctx))

	token, stored = s.Session()
	assert.Empty(t, token)
	assert.Nil(t, stored)
}

func TestMemoryStore_RememberedUsername(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	username, err := s.RememberedUsername(ctx)
	require.NoError(t, err)
	assert.Empty(t, username)

	require.NoError(t, s.SetRememberedUsername(ctx, "alice"))

	username, err = s.RememberedUsername(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	require.NoError(t, s.DeleteRememberedUsername(ctx))

	username, err = s.RememberedUsername(ctx)
	require.NoError(t, err)
	assert.Empty(t, username)
}
