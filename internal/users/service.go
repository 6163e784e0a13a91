package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service covers the authenticated profile endpoints and the admin listing.
type Service interface {
	Details(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	Update(ctx context.Context, userID uuid.UUID, input UpdateInput) (*UserDTO, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, file media.File) (*AvatarDTO, error)
	List(ctx context.Context) ([]UserDTO, error)
}

type ServiceParams struct {
	Repo        *Repository
	OTP         *OTPIssuer
	Media       media.Service
	PasswordCfg config.PasswordConfig
	Logger      *logger.Logger
}

type service struct {
	repo        *Repository
	otp         *OTPIssuer
	media       media.Service
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.OTP == nil {
		return nil, fmt.Errorf("otp issuer required")
	}
	if params.Media == nil {
		return nil, fmt.Errorf("media service required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:        params.Repo,
		otp:         params.OTP,
		media:       params.Media,
		passwordCfg: params.PasswordCfg,
		logg:        logg,
	}, nil
}

func (s *service) Details(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserError(err)
	}
	return FromModel(user), nil
}

// Update changes the caller's own profile. A new email resets verification
// and sends a fresh code to the new address.
func (s *service) Update(ctx context.Context, userID uuid.UUID, input UpdateInput) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserError(err)
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Mobile != nil {
		mobile := strings.TrimSpace(*input.Mobile)
		if mobile == "" {
			updates["mobile"] = nil
		} else {
			updates["mobile"] = mobile
		}
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		updates["password_hash"] = hash
	}

	emailChanged := false
	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		if email != user.Email {
			emailChanged = true
			updates["email"] = email
			updates["verify_email"] = false
		}
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, userID, updates); err != nil {
			if db.IsUniqueViolation(err) {
				return nil, pkgerrors.Conflict("email", err)
			}
			return nil, mapUserError(err)
		}
	}

	updated, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserError(err)
	}
	if emailChanged {
		if err := s.otp.Issue(ctx, updated, PurposeVerifyEmail); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "user_id", userID.String()), "users.update.verify_email_failed", err)
		}
	}
	return FromModel(updated), nil
}

// UploadAvatar stores the new image before swapping it in, then removes the
// previous one best effort.
func (s *service) UploadAvatar(ctx context.Context, userID uuid.UUID, file media.File) (*AvatarDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserError(err)
	}

	urls, err := s.media.Upload(ctx, enums.MediaKindAvatar, []media.File{file})
	if err != nil {
		return nil, err
	}
	avatar := urls[0]

	if err := s.repo.Update(ctx, userID, map[string]any{"avatar": avatar}); err != nil {
		if cleanupErr := s.media.Delete(ctx, avatar); cleanupErr != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"url": avatar, "error": cleanupErr.Error()}), "users.avatar.cleanup_failed")
		}
		return nil, mapUserError(err)
	}

	if previous := user.Avatar; previous != "" && previous != avatar {
		if err := s.media.Delete(ctx, previous); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"user_id": userID.String(),
				"url":     previous,
				"error":   err.Error(),
			}), "users.avatar.delete_previous_failed")
		}
	}
	return &AvatarDTO{ID: userID, Avatar: avatar}, nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapUserError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "User not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
}
