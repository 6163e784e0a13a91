package users

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// UserDTO is the transport shape that omits credentials and pending codes.
type UserDTO struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Avatar        string           `json:"avatar"`
	Mobile        *string          `json:"mobile"`
	VerifyEmail   bool             `json:"verify_email"`
	LastLoginDate *time.Time       `json:"last_login_date"`
	Status        enums.UserStatus `json:"status"`
	Role          enums.Role       `json:"role"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Avatar:        u.Avatar,
		Mobile:        u.Mobile,
		VerifyEmail:   u.VerifyEmail,
		LastLoginDate: u.LastLoginDate,
		Status:        u.Status,
		Role:          u.Role,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// UpdateInput is a self-service profile change. Nil fields are left alone.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Mobile   *string `json:"mobile"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

// AvatarDTO is returned after an avatar upload.
type AvatarDTO struct {
	ID     uuid.UUID `json:"_id"`
	Avatar string    `json:"avatar"`
}
