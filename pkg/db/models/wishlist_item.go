package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WishlistItem stores a snapshot of a liked product for a user.
type WishlistItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index:wishlist_items_user_id_idx;uniqueIndex:wishlist_items_user_product_key"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:wishlist_items_user_product_key"`
	ProductTitle string          `gorm:"column:product_title;not null"`
	Image        string          `gorm:"column:image;not null"`
	Rating       float64         `gorm:"column:rating;not null;default:0"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	OldPrice     decimal.Decimal `gorm:"column:old_price;type:numeric(12,2);not null"`
	Brand        string          `gorm:"column:brand;not null"`
	Discount     int             `gorm:"column:discount;not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (w *WishlistItem) BeforeCreate(*gorm.DB) error {
	assignID(&w.ID)
	return nil
}
