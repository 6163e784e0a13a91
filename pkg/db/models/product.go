package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product is a catalog listing. Category ids are weak references.
type Product struct {
	ID            uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	Name          string                      `gorm:"column:name;not null"`
	Description   string                      `gorm:"column:description;not null"`
	Brand         string                      `gorm:"column:brand;not null;default:''"`
	Price         decimal.Decimal             `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	OldPrice      decimal.Decimal             `gorm:"column:old_price;type:numeric(12,2);not null;default:0"`
	CatName       string                      `gorm:"column:cat_name;not null;default:''"`
	CatID         *uuid.UUID                  `gorm:"column:cat_id;type:uuid;index:products_cat_id_idx"`
	SubCat        string                      `gorm:"column:sub_cat;not null;default:''"`
	SubCatID      *uuid.UUID                  `gorm:"column:sub_cat_id;type:uuid;index:products_sub_cat_id_idx"`
	ThirdSubCat   string                      `gorm:"column:third_sub_cat;not null;default:''"`
	ThirdSubCatID *uuid.UUID                  `gorm:"column:third_sub_cat_id;type:uuid;index:products_third_sub_cat_id_idx"`
	CountInStock  int                         `gorm:"column:count_in_stock;not null;default:0"`
	Rating        float64                     `gorm:"column:rating;not null;default:0"`
	IsFeatured    bool                        `gorm:"column:is_featured;not null;default:false"`
	Discount      int                         `gorm:"column:discount;not null;default:0"`
	ProductRAMs   datatypes.JSONSlice[string] `gorm:"column:product_rams"`
	Sizes         datatypes.JSONSlice[string] `gorm:"column:sizes"`
	Weights       datatypes.JSONSlice[string] `gorm:"column:weights"`
	Images        datatypes.JSONSlice[string] `gorm:"column:images"`
	CreatedAt     time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// FirstImage returns the lead image or "" when the product has none.
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
