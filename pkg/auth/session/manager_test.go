package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbancart/urbancart-backend/pkg/config"
)

type memStore struct {
	mu     sync.Mutex
	values map[string]string
	sets   map[string]map[string]struct{}
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}, sets: map[string]map[string]struct{}{}}
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = fmt.Sprint(value)
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
		delete(m.sets, k)
	}
	return nil
}

func (m *memStore) AddToSet(_ context.Context, key string, _ time.Duration, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets[key] == nil {
		m.sets[key] = map[string]struct{}{}
	}
	for _, v := range members {
		m.sets[key][v] = struct{}{}
	}
	return nil
}

func (m *memStore) RemoveFromSet(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range members {
		delete(m.sets[key], v)
	}
	return nil
}

func (m *memStore) SetMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sets[key]))
	for v := range m.sets[key] {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) AccessSessionKey(accessID string) string { return "sess:" + accessID }

func (m *memStore) UserSessionsKey(userID string) string { return "user:" + userID }

func newTestManager(t *testing.T, store *memStore) *Manager {
	t.Helper()
	m, err := newManager(store, config.JWTConfig{AccessTTLMinutes: 15, RefreshTTLMinutes: 1440})
	require.NoError(t, err)
	return m
}

func TestGenerateAndRotate(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store)
	ctx := context.Background()
	userID := uuid.New()

	token, err := m.Generate(ctx, userID, "access-1")
	require.NoError(t, err)
	assert.Equal(t, userID.String()+"|"+token, store.values["sess:access-1"])

	_, _, err = m.Rotate(ctx, userID, "access-1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, _, err = m.Rotate(ctx, uuid.New(), "access-1", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "token must not be usable for another user")

	newID, newToken, err := m.Rotate(ctx, userID, "access-1", token)
	require.NoError(t, err)
	assert.NotEqual(t, token, newToken)

	ok, err := m.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = m.HasSession(ctx, newID)
	require.NoError(t, err)
	assert.True(t, ok)

	members, _ := store.SetMembers(ctx, "user:"+userID.String())
	assert.Equal(t, []string{newID}, members)

	_, _, err = m.Rotate(ctx, userID, "access-1", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "old token is single use")
}

func TestRotateUnknownSession(t *testing.T) {
	m := newTestManager(t, newMemStore())
	_, _, err := m.Rotate(context.Background(), uuid.New(), "missing", "token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevokeAll(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store)
	ctx := context.Background()
	userID, other := uuid.New(), uuid.New()

	for _, id := range []string{"a", "b"} {
		_, err := m.Generate(ctx, userID, id)
		require.NoError(t, err)
	}
	_, err := m.Generate(ctx, other, "c")
	require.NoError(t, err)

	require.NoError(t, m.RevokeAll(ctx, userID))
	for _, id := range []string{"a", "b"} {
		ok, err := m.HasSession(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok, id)
	}
	ok, _ := m.HasSession(ctx, "c")
	assert.True(t, ok, "other user's session survives")
}

func TestNewManagerRejectsShortRefreshTTL(t *testing.T) {
	_, err := newManager(newMemStore(), config.JWTConfig{AccessTTLMinutes: 30, RefreshTTLMinutes: 10})
	require.Error(t, err)
}
