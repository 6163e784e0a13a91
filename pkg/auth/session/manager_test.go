package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	value string
	ttl   time.Duration
}

// memStore stands in for redis; failWrites makes every Set fail.
type memStore struct {
	mu         sync.Mutex
	entries    map[string]entry
	failWrites bool
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]entry{}}
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errors.New("READONLY replica")
	}
	m.entries[key] = entry{value: fmt.Sprint(value), ttl: ttl}
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		return e.value, nil
	}
	return "", redislib.Nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *memStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func (m *memStore) stored(accessID string) (entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries["sess:"+accessID]
	return e, ok
}

func TestStartAndRotate(t *testing.T) {
	store := newMemStore()
	manager := &Manager{store: store, ttl: time.Hour}
	ctx := context.Background()

	pair, err := manager.Start(ctx)
	require.NoError(t, err)
	first, ok := store.stored(pair.AccessID)
	require.True(t, ok)
	assert.Equal(t, entry{value: digest(pair.RefreshToken), ttl: time.Hour}, first)
	assert.NotContains(t, first.value, pair.RefreshToken, "raw token never stored")

	_, err = manager.Rotate(ctx, pair.AccessID, "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	next, err := manager.Rotate(ctx, pair.AccessID, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessID, next.AccessID)
	_, exists := store.stored(pair.AccessID)
	assert.False(t, exists, "old session must be removed")
	rotated, _ := store.stored(next.AccessID)
	assert.Equal(t, digest(next.RefreshToken), rotated.value)

	_, err = manager.Rotate(ctx, pair.AccessID, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "a rotated refresh token cannot be replayed")
}

func TestRevokeAndHasSession(t *testing.T) {
	store := newMemStore()
	manager := &Manager{store: store, ttl: time.Hour}
	ctx := context.Background()

	pair, err := manager.Start(ctx)
	require.NoError(t, err)

	ok, err := manager.HasSession(ctx, pair.AccessID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, manager.Revoke(ctx, pair.AccessID))
	ok, err = manager.HasSession(ctx, pair.AccessID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, manager.Revoke(ctx, " "))
	_, err = manager.HasSession(ctx, "")
	assert.Error(t, err)
}

func TestRotateRejectsUnknownSession(t *testing.T) {
	manager := &Manager{store: newMemStore(), ttl: time.Hour}
	ctx := context.Background()

	_, err := manager.Rotate(ctx, "missing", "token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, err = manager.Rotate(ctx, "", "token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestStartSurfacesStoreErrors(t *testing.T) {
	store := newMemStore()
	store.failWrites = true
	manager := &Manager{store: store, ttl: time.Hour}

	_, err := manager.Start(context.Background())
	assert.ErrorContains(t, err, "READONLY")
	assert.Empty(t, store.entries)
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{})
	assert.Error(t, err)

	client := &redisclient.Client{}
	_, err = NewManager(client, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30})
	assert.ErrorContains(t, err, "must exceed")

	manager, err := NewManager(client, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 120})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, manager.ttl)
}
