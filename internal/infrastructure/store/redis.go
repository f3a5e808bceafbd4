package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"session-hub/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Slot names under the configured key prefix.
const (
	keyToken              = "token"
	keyUser               = "user"
	keyRememberedUsername = "rememberedUsername"
)

// RedisStore persists the session slots in Redis. Implements
// domain.CredentialStore. Token and identity are written and deleted in
// one transaction so neither can exist without the other.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed credential store. All keys are
// namespaced under prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(slot string) string {
	return s.prefix + slot
}

// SaveSession writes the token and the JSON-encoded identity atomically.
func (s *RedisStore) SaveSession(ctx context.Context, token string, identity domain.Identity) error {
	encoded, err := json.Marshal(storedIdentity{
		ID:       identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
	})
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(keyToken), token, 0)
		pipe.Set(ctx, s.key(keyUser), encoded, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// ClearSession removes the token and identity slots together.
func (s *RedisStore) ClearSession(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(keyToken), s.key(keyUser)).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// SetRememberedUsername stores the opted-in username.
func (s *RedisStore) SetRememberedUsername(ctx context.Context, username string) error {
	if err := s.client.Set(ctx, s.key(keyRememberedUsername), username, 0).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteRememberedUsername removes the remembered username slot.
func (s *RedisStore) DeleteRememberedUsername(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(keyRememberedUsername)).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// RememberedUsername reads the remembered username slot; "" when unset.
func (s *RedisStore) RememberedUsername(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key(keyRememberedUsername)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return val, nil
}

// storedIdentity is the serialized shape of the "user" slot.
type storedIdentity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
