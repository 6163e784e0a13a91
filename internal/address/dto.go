package address

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

type AddressDTO struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	AddressLine string    `json:"address_line"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Pincode     string    `json:"pincode"`
	Country     string    `json:"country"`
	Mobile      string    `json:"mobile"`
	Status      bool      `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newAddressDTO(a *models.Address) AddressDTO {
	return AddressDTO{
		ID:          a.ID,
		UserID:      a.UserID,
		AddressLine: a.AddressLine,
		City:        a.City,
		State:       a.State,
		Pincode:     a.Pincode,
		Country:     a.Country,
		Mobile:      a.Mobile,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// CreateInput is the payload for a new delivery address.
type CreateInput struct {
	AddressLine string `json:"address_line" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	Pincode     string `json:"pincode" validate:"required"`
	Country     string `json:"country" validate:"required"`
	Mobile      string `json:"mobile" validate:"required"`
	Status      *bool  `json:"status"`
}

// UpdateInput is a patch: nil fields are left unchanged.
type UpdateInput struct {
	AddressLine *string `json:"address_line" validate:"omitempty,min=1"`
	City        *string `json:"city" validate:"omitempty,min=1"`
	State       *string `json:"state" validate:"omitempty,min=1"`
	Pincode     *string `json:"pincode" validate:"omitempty,min=1"`
	Country     *string `json:"country" validate:"omitempty,min=1"`
	Mobile      *string `json:"mobile" validate:"omitempty,min=1"`
	Status      *bool   `json:"status"`
}
