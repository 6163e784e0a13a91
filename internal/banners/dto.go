package banners

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

type BannerDTO struct {
	ID        uuid.UUID              `json:"id"`
	Title     string                 `json:"title"`
	Image     string                 `json:"image"`
	Link      string                 `json:"link"`
	Status    enums.VisibilityStatus `json:"status"`
	Order     int                    `json:"order"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

func NewBannerDTO(b *models.Banner) BannerDTO {
	return BannerDTO{
		ID:        b.ID,
		Title:     b.Title,
		Image:     b.Image,
		Link:      b.Link,
		Status:    b.Status,
		Order:     b.SortOrder,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// CreateInput takes either a hosted image URL or an upload.
type CreateInput struct {
	Title  string                 `json:"title"`
	Image  string                 `json:"image" validate:"omitempty,url"`
	Link   string                 `json:"link"`
	Status enums.VisibilityStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	Order  int                    `json:"order"`
	Upload *media.File            `json:"-"`
}

type UpdateInput struct {
	Title  *string                 `json:"title"`
	Image  *string                 `json:"image" validate:"omitempty,url"`
	Link   *string                 `json:"link"`
	Status *enums.VisibilityStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	Order  *int                    `json:"order"`
	Upload *media.File             `json:"-"`
}
