package wishlist

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddInput is the product snapshot stored with a wishlist entry. The caller
// supplies it so the list renders without joining the catalog.
type AddInput struct {
	ProductID    uuid.UUID        `json:"productId" validate:"required"`
	ProductTitle string           `json:"productTitle" validate:"required"`
	Image        string           `json:"image" validate:"required"`
	Rating       *float64         `json:"rating" validate:"required,gte=0,lte=5"`
	Price        *decimal.Decimal `json:"price" validate:"required"`
	OldPrice     *decimal.Decimal `json:"oldPrice" validate:"required"`
	Brand        string           `json:"brand" validate:"required"`
	Discount     *int             `json:"discount" validate:"required,gte=0,lte=100"`
}

// WishlistItemDTO is a saved product as returned to clients.
type WishlistItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"userId"`
	ProductID    uuid.UUID       `json:"productId"`
	ProductTitle string          `json:"productTitle"`
	Image        string          `json:"image"`
	Rating       float64         `json:"rating"`
	Price        decimal.Decimal `json:"price"`
	OldPrice     decimal.Decimal `json:"oldPrice"`
	Brand        string          `json:"brand"`
	Discount     int             `json:"discount"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func newWishlistItemDTO(item *models.WishlistItem) WishlistItemDTO {
	return WishlistItemDTO{
		ID:           item.ID,
		UserID:       item.UserID,
		ProductID:    item.ProductID,
		ProductTitle: item.ProductTitle,
		Image:        item.Image,
		Rating:       item.Rating,
		Price:        item.Price,
		OldPrice:     item.OldPrice,
		Brand:        item.Brand,
		Discount:     item.Discount,
		CreatedAt:    item.CreatedAt,
	}
}
