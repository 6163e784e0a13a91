package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type rateStore struct {
	mu   sync.Mutex
	hits map[string]int64
	err  error
}

func (s *rateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, 0, s.err
	}
	if s.hits == nil {
		s.hits = map[string]int64{}
	}
	s.hits[scope]++
	return s.hits[scope] <= limit, s.hits[scope], nil
}

func authAttempt(handler http.Handler, path, body, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = "1.2.3.4:5678"
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.False(t, payload.Success)
	return payload.Code
}

func TestAuthRateLimitRestoresBody(t *testing.T) {
	const body = `{"email":"tester@example.com","password":"secret"}`
	var seen string
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 2, 2), &rateStore{}, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			seen = string(raw)
		}))

	rec := authAttempt(handler, "/api/user/login", body, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, seen)
}

func TestAuthRateLimitByEmail(t *testing.T) {
	store := &rateStore{}
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 0, 2), store, nil)(okHandler())

	// Case and whitespace variants count against the same address.
	bodies := []string{
		`{"email":"Blocked@Example.com","password":"x"}`,
		`{"email":" blocked@example.com ","password":"x"}`,
		`{"email":"BLOCKED@example.com","password":"x"}`,
	}
	for i, body := range bodies {
		rec := authAttempt(handler, "/api/user/login", body, "")
		if i < 2 {
			assert.Equal(t, http.StatusOK, rec.Code, "attempt %d", i+1)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeRateLimit), errorCode(t, rec))
	}

	require.Len(t, store.hits, 1)
	for scope := range store.hits {
		assert.True(t, strings.HasPrefix(scope, "email:login:"), scope)
		assert.NotContains(t, scope, "example.com")
	}
}

func TestAuthRateLimitByForwardedIP(t *testing.T) {
	store := &rateStore{}
	handler := AuthRateLimit(NewAuthRateLimitPolicy("register", time.Minute, 1, 0), store, nil)(okHandler())
	body := `{"email":"foo@example.com","password":"secret"}`

	first := authAttempt(handler, "/api/user/register", body, "9.9.9.9, 10.0.0.1")
	assert.Equal(t, http.StatusOK, first.Code)

	second := authAttempt(handler, "/api/user/register", body, "9.9.9.9, 10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Contains(t, store.hits, "ip:register:9.9.9.9")
}

func TestAuthRateLimitStoreFailure(t *testing.T) {
	store := &rateStore{err: errors.New("connection refused")}
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 5, 5), store, nil)(okHandler())

	rec := authAttempt(handler, "/api/user/login", `{"email":"a@b.c"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeDependency), errorCode(t, rec))
}

func TestAuthRateLimitDisabled(t *testing.T) {
	store := &rateStore{}
	for name, policy := range map[string]AuthRateLimitPolicy{
		"zero window": NewAuthRateLimitPolicy("login", 0, 1, 1),
		"no limits":   NewAuthRateLimitPolicy("login", time.Minute, 0, 0),
	} {
		handler := AuthRateLimit(policy, store, nil)(okHandler())
		for i := 0; i < 3; i++ {
			rec := authAttempt(handler, "/", `{}`, "")
			assert.Equal(t, http.StatusOK, rec.Code, name)
		}
	}
	assert.Empty(t, store.hits)

	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 1, 1), nil, nil)(okHandler())
	assert.Equal(t, http.StatusOK, authAttempt(handler, "/", `{}`, "").Code)
}
