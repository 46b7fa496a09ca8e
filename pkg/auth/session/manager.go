// Package session keeps refresh sessions in redis. A session is named by the
// jti of the access token it was issued with and stores "<user id>|<refresh
// token>", so a refresh token is only accepted for the user that owns it.
package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/urbancart/urbancart-backend/pkg/config"
	redisclient "github.com/urbancart/urbancart-backend/pkg/redis"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// Store is the redis surface the manager uses. *redisclient.Client satisfies it.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error
	RemoveFromSet(ctx context.Context, key string, members ...string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	AccessSessionKey(accessID string) string
	UserSessionsKey(userID string) string
}

// AccessSessionChecker is what the auth middleware needs.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return newManager(client, cfg)
}

func newManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	refresh, access := cfg.RefreshTokenTTL(), cfg.AccessTTL()
	if refresh <= access {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", refresh, access)
	}
	return &Manager{store: store, ttl: refresh}, nil
}

// NewAccessID returns a fresh jti.
func NewAccessID() string {
	return uuid.NewString()
}

// Generate opens a session for accessID and returns its refresh token.
func (m *Manager) Generate(ctx context.Context, userID uuid.UUID, accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", errors.New("access id is required")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), userID.String()+"|"+token, m.ttl); err != nil {
		return "", err
	}
	if err := m.store.AddToSet(ctx, m.store.UserSessionsKey(userID.String()), m.ttl, accessID); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate swaps the session named by oldAccessID for a new one. The old
// session is gone once Rotate succeeds.
func (m *Manager) Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, refreshToken string) (newAccessID, newToken string, err error) {
	if strings.TrimSpace(oldAccessID) == "" || refreshToken == "" {
		return "", "", ErrInvalidRefreshToken
	}
	stored, err := m.store.Get(ctx, m.store.AccessSessionKey(oldAccessID))
	if errors.Is(err, redislib.Nil) {
		return "", "", ErrInvalidRefreshToken
	}
	if err != nil {
		return "", "", err
	}
	owner, token, _ := strings.Cut(stored, "|")
	if owner != userID.String() || subtle.ConstantTimeCompare([]byte(token), []byte(refreshToken)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID = NewAccessID()
	if newToken, err = m.Generate(ctx, userID, newAccessID); err != nil {
		return "", "", err
	}
	if err := m.Revoke(ctx, userID, oldAccessID); err != nil {
		return "", "", err
	}
	return newAccessID, newToken, nil
}

func (m *Manager) Revoke(ctx context.Context, userID uuid.UUID, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errors.New("access id is required")
	}
	if err := m.store.Del(ctx, m.store.AccessSessionKey(accessID)); err != nil {
		return err
	}
	return m.store.RemoveFromSet(ctx, m.store.UserSessionsKey(userID.String()), accessID)
}

// RevokeAll ends every session of the user.
func (m *Manager) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	index := m.store.UserSessionsKey(userID.String())
	ids, err := m.store.SetMembers(ctx, index)
	if err != nil && !errors.Is(err, redislib.Nil) {
		return err
	}
	keys := []string{index}
	for _, id := range ids {
		keys = append(keys, m.store.AccessSessionKey(id))
	}
	return m.store.Del(ctx, keys...)
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, nil
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case errors.Is(err, redislib.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}
