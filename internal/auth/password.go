package auth

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

// grantStore remembers which accounts passed the forgot-password code check.
// *redis.Client satisfies it.
type grantStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

func (s *service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	return s.otp.Issue(ctx, user, users.PurposeResetPassword)
}

// VerifyForgotPasswordOTP consumes the code and opens a short window in
// which ResetPassword is accepted for the account.
func (s *service) VerifyForgotPasswordOTP(ctx context.Context, req OTPRequest) error {
	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if err := s.otp.Check(ctx, user, req.OTP); err != nil {
		return err
	}
	if err := s.grants.Set(ctx, s.grantKey(user), "1", s.grantTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset grant")
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, "Password and confirm password do not match")
	}
	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	key := s.grantKey(user)
	if _, err := s.grants.Get(ctx, key); err != nil {
		if redisclient.IsMiss(err) {
			return pkgerrors.New(pkgerrors.CodeValidation, "Verify the OTP before resetting the password")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reset grant")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.Update(ctx, user.ID, map[string]any{"password_hash": hash}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	if err := s.grants.Del(ctx, key); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "user_id", user.ID.String()), "auth.reset.grant_cleanup_failed")
	}
	return nil
}

func (s *service) grantKey(user *models.User) string {
	return s.grants.CacheKey("password_reset", user.ID.String())
}
