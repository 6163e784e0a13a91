package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Blog struct {
	ID          uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	Title       string                      `gorm:"column:title;not null"`
	Slug        string                      `gorm:"column:slug;not null;uniqueIndex:blogs_slug_key"`
	Description string                      `gorm:"column:description;not null"`
	Content     string                      `gorm:"column:content;not null;default:''"`
	CatImg      string                      `gorm:"column:cat_img;not null;default:''"`
	Images      datatypes.JSONSlice[string] `gorm:"column:images"`
	Category    string                      `gorm:"column:category;not null;default:General"`
	Author      string                      `gorm:"column:author;not null;default:Admin"`
	CreatedAt   time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Blog) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
