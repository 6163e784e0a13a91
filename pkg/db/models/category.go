package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Category is a node in the catalog tree. ParentID is a weak reference.
type Category struct {
	ID            uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	Name          string                      `gorm:"column:name;not null"`
	Slug          string                      `gorm:"column:slug;not null;index:categories_slug_idx"`
	Images        datatypes.JSONSlice[string] `gorm:"column:images"`
	ParentID      *uuid.UUID                  `gorm:"column:parent_id;type:uuid;index:categories_parent_id_idx"`
	ParentCatName *string                     `gorm:"column:parent_cat_name"`
	Level         int                         `gorm:"column:level;not null;default:1;index:categories_level_idx"`
	Status        enums.VisibilityStatus      `gorm:"column:status;not null;default:active"`
	CreatedAt     time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
