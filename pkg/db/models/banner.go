package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Banner struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Title     string                 `gorm:"column:title;not null"`
	Image     string                 `gorm:"column:image;not null"`
	Link      string                 `gorm:"column:link;not null;default:''"`
	Status    enums.VisibilityStatus `gorm:"column:status;not null;default:active"`
	SortOrder int                    `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Banner) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
