package auth

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"gorm.io/gorm"
)

// Register creates an unverified account and emails a verification code.
// A failed email is logged; the account stays and the code can be reissued
// through the forgot-password flow.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.Conflict("email", nil)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       enums.UserStatusActive,
		Role:         enums.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Conflict("email", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	if err := s.otp.Issue(ctx, user, users.PurposeVerifyEmail); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "user_id", user.ID.String()), "auth.register.verify_email_failed", err)
	}
	return users.FromModel(user), nil
}

func (s *service) VerifyEmail(ctx context.Context, req OTPRequest) error {
	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if err := s.otp.Check(ctx, user, req.OTP); err != nil {
		return err
	}
	if err := s.users.Update(ctx, user.ID, map[string]any{"verify_email": true}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark email verified")
	}
	return nil
}
