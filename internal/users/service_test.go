package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type stubMedia struct {
	uploaded  []string
	deleted   []string
	uploadErr error
}

func (s *stubMedia) Upload(_ context.Context, kind enums.MediaKind, files []media.File) ([]string, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url := "https://cdn.test/" + kind.String() + "/" + f.Name
		s.uploaded = append(s.uploaded, url)
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *stubMedia) Delete(_ context.Context, url string) error {
	s.deleted = append(s.deleted, url)
	return nil
}

func (s *stubMedia) DeleteAll(ctx context.Context, urls []string) error {
	for _, url := range urls {
		_ = s.Delete(ctx, url)
	}
	return nil
}

type harness struct {
	svc   Service
	repo  *Repository
	otp   *OTPIssuer
	mail  *recordingMailer
	media *stubMedia
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	mail := &recordingMailer{}
	issuer, err := NewOTPIssuer(repo, mail, config.OTPConfig{TTL: 10 * time.Minute, Digits: 6}, "Storefront")
	require.NoError(t, err)
	mediaSvc := &stubMedia{}
	svc, err := NewService(ServiceParams{Repo: repo, OTP: issuer, Media: mediaSvc})
	require.NoError(t, err)
	return &harness{svc: svc, repo: repo, otp: issuer, mail: mail, media: mediaSvc}
}

func mustCreateUser(t *testing.T, repo *Repository, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "Asha", Email: email, PasswordHash: "x", Status: enums.UserStatusActive, Role: enums.RoleUser}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUpdateEmailResetsVerification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := mustCreateUser(t, h.repo, "asha@example.com")
	require.NoError(t, h.repo.Update(ctx, user.ID, map[string]any{"verify_email": true}))

	newEmail := "  Asha.New@Example.com "
	name := "Asha K"
	dto, err := h.svc.Update(ctx, user.ID, UpdateInput{Email: &newEmail, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "asha.new@example.com", dto.Email)
	assert.Equal(t, "Asha K", dto.Name)
	assert.False(t, dto.VerifyEmail)

	require.Len(t, h.mail.sent, 1)
	assert.Equal(t, "asha.new@example.com", h.mail.sent[0].To)

	stored, err := h.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.OTP)
	assert.Len(t, *stored.OTP, 6)
}

func TestUpdatePasswordRehashes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := mustCreateUser(t, h.repo, "pw@example.com")

	password := "new-secret"
	_, err := h.svc.Update(ctx, user.ID, UpdateInput{Password: &password})
	require.NoError(t, err)

	stored, err := h.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	ok, err := security.VerifyPassword(password, stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, h.mail.sent)
}

func TestUpdateDuplicateEmailConflicts(t *testing.T) {
	h := newHarness(t)
	mustCreateUser(t, h.repo, "taken@example.com")
	user := mustCreateUser(t, h.repo, "mine@example.com")

	email := "taken@example.com"
	_, err := h.svc.Update(context.Background(), user.ID, UpdateInput{Email: &email})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	assert.Equal(t, "email already exists", pkgerrors.As(err).Message())
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := mustCreateUser(t, h.repo, "avatar@example.com")

	first, err := h.svc.UploadAvatar(ctx, user.ID, media.File{Name: "a.png", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/avatar/a.png", first.Avatar)
	assert.Empty(t, h.media.deleted)

	second, err := h.svc.UploadAvatar(ctx, user.ID, media.File{Name: "b.png", Body: strings.NewReader("y")})
	require.NoError(t, err)
	assert.Equal(t, []string{first.Avatar}, h.media.deleted)

	details, err := h.svc.Details(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Avatar, details.Avatar)

	h.media.uploadErr = pkgerrors.New(pkgerrors.CodeValidation, "unsupported file type")
	_, err = h.svc.UploadAvatar(ctx, user.ID, media.File{Name: "c.txt", Body: strings.NewReader("z")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListNewestFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	older := mustCreateUser(t, h.repo, "older@example.com")
	require.NoError(t, h.repo.Update(ctx, older.ID, map[string]any{"created_at": time.Now().Add(-time.Hour)}))
	mustCreateUser(t, h.repo, "newer@example.com")

	list, err := h.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer@example.com", list[0].Email)
	assert.Equal(t, "older@example.com", list[1].Email)
}

func TestOTPCheck(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := mustCreateUser(t, h.repo, "otp@example.com")

	require.NoError(t, h.otp.Issue(ctx, user, PurposeResetPassword))
	require.Len(t, h.mail.sent, 1)
	assert.Equal(t, "Reset your password", h.mail.sent[0].Subject)
	code := *user.OTP

	err := h.otp.Check(ctx, user, "000000x")
	assert.Equal(t, "Invalid OTP", pkgerrors.As(err).Message())

	h.otp.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	err = h.otp.Check(ctx, user, code)
	assert.Equal(t, "OTP expired", pkgerrors.As(err).Message())

	stored, err := h.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.OTP, "expired code is cleared")

	h.otp.now = time.Now
	require.NoError(t, h.otp.Issue(ctx, stored, PurposeVerifyEmail))
	require.NoError(t, h.otp.Check(ctx, stored, *stored.OTP))
	assert.Nil(t, stored.OTP)
}

func TestDetailsMissingUser(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Details(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
