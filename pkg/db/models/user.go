package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a storefront account.
type User struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name          string           `gorm:"column:name;not null"`
	Email         string           `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash  string           `gorm:"column:password_hash;not null"`
	Avatar        string           `gorm:"column:avatar;not null;default:''"`
	Mobile        *string          `gorm:"column:mobile"`
	VerifyEmail   bool             `gorm:"column:verify_email;not null;default:false"`
	LastLoginDate *time.Time       `gorm:"column:last_login_date"`
	Status        enums.UserStatus `gorm:"column:status;not null;default:Active"`
	OTP           *string          `gorm:"column:otp"`
	OTPExpiresAt  *time.Time       `gorm:"column:otp_expires_at"`
	Role          enums.Role       `gorm:"column:role;not null;default:USER"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
