package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "storefront",
	ExpirationMinutes: 30,
}

type recordingMailer struct {
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type stubSessionManager struct {
	mu       sync.Mutex
	sessions map[string]string
	counter  int
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{sessions: map[string]string{}}
}

func (m *stubSessionManager) Start(context.Context) (session.Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	pair := session.Pair{AccessID: uuid.NewString(), RefreshToken: "refresh-" + uuid.NewString()}
	m.sessions[pair.AccessID] = pair.RefreshToken
	return pair, nil
}

func (m *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (session.Pair, error) {
	m.mu.Lock()
	stored, ok := m.sessions[oldAccessID]
	if !ok || stored != provided {
		m.mu.Unlock()
		return session.Pair{}, session.ErrInvalidRefreshToken
	}
	delete(m.sessions, oldAccessID)
	m.mu.Unlock()
	return m.Start(ctx)
}

func (m *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, accessID)
	return nil
}

func (m *stubSessionManager) has(accessID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[accessID]
	return ok
}

type memoryGrants struct {
	values map[string]string
}

func (g *memoryGrants) Set(_ context.Context, key string, value any, _ time.Duration) error {
	g.values[key] = value.(string)
	return nil
}

func (g *memoryGrants) Get(_ context.Context, key string) (string, error) {
	v, ok := g.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (g *memoryGrants) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(g.values, key)
	}
	return nil
}

func (g *memoryGrants) CacheKey(parts ...string) string {
	key := "test:cache"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

type harness struct {
	svc      Service
	repo     *users.Repository
	mail     *recordingMailer
	sessions *stubSessionManager
	grants   *memoryGrants
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo := users.NewRepository(dbtest.Open(t))
	mail := &recordingMailer{}
	otpCfg := config.OTPConfig{TTL: 10 * time.Minute, Digits: 6}
	issuer, err := users.NewOTPIssuer(repo, mail, otpCfg, "Storefront")
	require.NoError(t, err)

	h := &harness{
		repo:     repo,
		mail:     mail,
		sessions: newStubSessionManager(),
		grants:   &memoryGrants{values: map[string]string{}},
	}
	h.svc, err = NewService(ServiceParams{
		UserRepo:       repo,
		OTP:            issuer,
		SessionManager: h.sessions,
		ResetGrants:    h.grants,
		JWTConfig:      testJWT,
		OTPConfig:      otpCfg,
	})
	require.NoError(t, err)
	return h
}

func (h *harness) storedOTP(t *testing.T, email string) string {
	t.Helper()
	user, err := h.repo.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, user.OTP)
	return *user.OTP
}

func TestRegisterAndVerifyEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	user, err := h.svc.Register(ctx, RegisterRequest{Name: "Asha", Email: " Asha@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.False(t, user.VerifyEmail)
	assert.Equal(t, enums.RoleUser, user.Role)
	require.Len(t, h.mail.sent, 1)

	stored, err := h.repo.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	_, err = h.svc.Register(ctx, RegisterRequest{Name: "Again", Email: "asha@example.com", Password: "secret2"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	err = h.svc.VerifyEmail(ctx, OTPRequest{Email: "asha@example.com", OTP: "not-it"})
	assert.Equal(t, "Invalid OTP", pkgerrors.As(err).Message())

	code := h.storedOTP(t, "asha@example.com")
	require.NoError(t, h.svc.VerifyEmail(ctx, OTPRequest{Email: "asha@example.com", OTP: code}))

	verified, err := h.repo.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.True(t, verified.VerifyEmail)
	assert.Nil(t, verified.OTP)

	err = h.svc.VerifyEmail(ctx, OTPRequest{Email: "nobody@example.com", OTP: code})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLoginIssuesTokensAndRecordsLastLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Register(ctx, RegisterRequest{Name: "Asha", Email: "login@example.com", Password: "secret1"})
	require.NoError(t, err)

	resp, err := h.svc.Login(ctx, LoginRequest{Email: "LOGIN@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotNil(t, resp.User.LastLoginDate)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, enums.RoleUser, claims.Role)
	assert.True(t, h.sessions.has(claims.ID))

	stored, err := h.repo.FindByEmail(ctx, "login@example.com")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginDate)
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Register(ctx, RegisterRequest{Name: "Asha", Email: "fail@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = h.svc.Login(ctx, LoginRequest{Email: "fail@example.com", Password: "wrong"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = h.svc.Login(ctx, LoginRequest{Email: "missing@example.com", Password: "secret1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	stored, err := h.repo.FindByEmail(ctx, "fail@example.com")
	require.NoError(t, err)
	require.NoError(t, h.repo.Update(ctx, stored.ID, map[string]any{"status": enums.UserStatusSuspended}))

	_, err = h.svc.Login(ctx, LoginRequest{Email: "fail@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	assert.Equal(t, "Account is not active", pkgerrors.As(err).Message())

	_, err = h.svc.Login(ctx, LoginRequest{Email: "fail@example.com", Password: "wrong"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "bad password wins over status")
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Register(ctx, RegisterRequest{Name: "Asha", Email: "refresh@example.com", Password: "secret1"})
	require.NoError(t, err)
	login, err := h.svc.Login(ctx, LoginRequest{Email: "refresh@example.com", Password: "secret1"})
	require.NoError(t, err)
	oldClaims, err := pkgAuth.ParseAccessToken(testJWT, login.AccessToken)
	require.NoError(t, err)

	_, err = h.svc.Refresh(ctx, login.AccessToken, "wrong")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	pair, err := h.svc.Refresh(ctx, login.AccessToken, login.RefreshToken)
	require.NoError(t, err)
	assert.False(t, h.sessions.has(oldClaims.ID))

	newClaims, err := pkgAuth.ParseAccessToken(testJWT, pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, h.sessions.has(newClaims.ID))

	_, err = h.svc.Refresh(ctx, login.AccessToken, login.RefreshToken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "refresh tokens are single use")

	require.NoError(t, h.svc.Logout(ctx, newClaims.ID))
	assert.False(t, h.sessions.has(newClaims.ID))
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := &models.User{Name: "Old", Email: "old@example.com", PasswordHash: "x", Status: enums.UserStatusActive, Role: enums.RoleAdmin}
	require.NoError(t, h.repo.Create(ctx, user))

	pair, err := h.sessions.Start(ctx)
	require.NoError(t, err)
	expired, err := pkgAuth.MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   enums.RoleAdmin,
		JTI:    pair.AccessID,
	})
	require.NoError(t, err)

	refreshed, err := h.svc.Refresh(ctx, expired, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWT, refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleAdmin, claims.Role)
}

func TestPasswordResetFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Register(ctx, RegisterRequest{Name: "Asha", Email: "reset@example.com", Password: "secret1"})
	require.NoError(t, err)

	err = h.svc.ForgotPassword(ctx, ForgotPasswordRequest{Email: "nobody@example.com"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, h.svc.ForgotPassword(ctx, ForgotPasswordRequest{Email: "reset@example.com"}))
	require.Len(t, h.mail.sent, 2)
	assert.Equal(t, "Reset your password", h.mail.sent[1].Subject)

	reset := ResetPasswordRequest{Email: "reset@example.com", NewPassword: "brand-new", ConfirmPassword: "brand-new"}
	err = h.svc.ResetPassword(ctx, reset)
	require.Error(t, err, "reset requires a verified code")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	code := h.storedOTP(t, "reset@example.com")
	require.NoError(t, h.svc.VerifyForgotPasswordOTP(ctx, OTPRequest{Email: "reset@example.com", OTP: code}))

	mismatch := reset
	mismatch.ConfirmPassword = "other"
	err = h.svc.ResetPassword(ctx, mismatch)
	assert.Equal(t, "Password and confirm password do not match", pkgerrors.As(err).Message())

	require.NoError(t, h.svc.ResetPassword(ctx, reset))
	stored, err := h.repo.FindByEmail(ctx, "reset@example.com")
	require.NoError(t, err)
	ok, err := security.VerifyPassword("brand-new", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Error(t, h.svc.ResetPassword(ctx, reset), "grant is single use")
}

func TestLoginUpgradesStaleHash(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, err := h.svc.Register(ctx, RegisterRequest{Name: "Asha", Email: "stale@example.com", Password: "secret1"})
	require.NoError(t, err)

	stale, err := security.HashPassword("secret1", config.PasswordConfig{ArgonTime: 3, ArgonMemoryKB: 64})
	require.NoError(t, err)
	require.NoError(t, h.repo.Update(ctx, user.ID, map[string]any{"password_hash": stale}))

	_, err = h.svc.Login(ctx, LoginRequest{Email: "stale@example.com", Password: "secret1"})
	require.NoError(t, err)

	stored, err := h.repo.FindByEmail(ctx, "stale@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, stale, stored.PasswordHash)
	assert.False(t, security.NeedsRehash(stored.PasswordHash, config.PasswordConfig{}))
	ok, err := security.VerifyPassword("secret1", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}
