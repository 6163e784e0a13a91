package users

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

// Purpose selects the email template for an issued code.
type Purpose int

const (
	PurposeVerifyEmail Purpose = iota
	PurposeResetPassword
)

// OTPIssuer creates, stores, emails and checks one-time codes.
type OTPIssuer struct {
	repo    *Repository
	mailer  mailer.Sender
	cfg     config.OTPConfig
	appName string
	now     func() time.Time
}

func NewOTPIssuer(repo *Repository, sender mailer.Sender, cfg config.OTPConfig, appName string) (*OTPIssuer, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if sender == nil {
		sender = mailer.Noop{}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Digits <= 0 {
		cfg.Digits = 6
	}
	return &OTPIssuer{repo: repo, mailer: sender, cfg: cfg, appName: appName, now: time.Now}, nil
}

// Issue stores a fresh code on the user and emails it.
func (i *OTPIssuer) Issue(ctx context.Context, user *models.User, purpose Purpose) error {
	code, err := security.GenerateOTP(i.cfg.Digits)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	expiresAt := i.now().Add(i.cfg.TTL)
	if err := i.repo.SetOTP(ctx, user.ID, code, expiresAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}
	user.OTP = &code
	user.OTPExpiresAt = &expiresAt

	data := mailer.OTPData{
		AppName:          i.appName,
		Name:             user.Name,
		OTP:              code,
		ExpiresInMinutes: int(i.cfg.TTL / time.Minute),
	}
	var msg mailer.Message
	switch purpose {
	case PurposeResetPassword:
		msg, err = mailer.ForgotPasswordMessage(user.Email, data)
	default:
		msg, err = mailer.VerifyEmailMessage(user.Email, data)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render otp email")
	}
	if err := i.mailer.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send otp email")
	}
	return nil
}

// Check consumes a code. An expired code is cleared before the error is
// returned so it cannot be retried.
func (i *OTPIssuer) Check(ctx context.Context, user *models.User, provided string) error {
	if user.OTP == nil || !security.OTPMatches(*user.OTP, provided) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid OTP")
	}
	if user.OTPExpiresAt == nil || i.now().After(*user.OTPExpiresAt) {
		if err := i.repo.ClearOTP(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear otp")
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "OTP expired")
	}
	if err := i.repo.ClearOTP(ctx, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear otp")
	}
	user.OTP = nil
	user.OTPExpiresAt = nil
	return nil
}
