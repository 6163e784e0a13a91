package cart

import (
	"time"

	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CartItemDTO is a cart line joined with the current product snapshot.
// Product is nil when the product has since been deleted.
type CartItemDTO struct {
	ID        uuid.UUID            `json:"id"`
	ProductID uuid.UUID            `json:"productId"`
	Quantity  int                  `json:"quantity"`
	UserID    uuid.UUID            `json:"userId"`
	Product   *products.ProductDTO `json:"productDetails"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

func newCartItemDTO(item *models.CartItem, product *models.Product) CartItemDTO {
	dto := CartItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UserID:    item.UserID,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
	if product != nil {
		snapshot := products.NewProductDTO(product)
		dto.Product = &snapshot
	}
	return dto
}
