package products

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/search"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Images        []string        `json:"images"`
	Brand         string          `json:"brand"`
	Price         decimal.Decimal `json:"price"`
	OldPrice      decimal.Decimal `json:"oldPrice"`
	CatName       string          `json:"catName"`
	CatID         *uuid.UUID      `json:"catId"`
	SubCat        string          `json:"subCat"`
	SubCatID      *uuid.UUID      `json:"subCatId"`
	ThirdSubCat   string          `json:"thirdSubCat"`
	ThirdSubCatID *uuid.UUID      `json:"thirdSubCatId"`
	CountInStock  int             `json:"countInStock"`
	Rating        float64         `json:"rating"`
	IsFeatured    bool            `json:"isFeatured"`
	Discount      int             `json:"discount"`
	ProductRAMs   []string        `json:"productRam"`
	Sizes         []string        `json:"size"`
	Weights       []string        `json:"productWeight"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Images:        append([]string{}, p.Images...),
		Brand:         p.Brand,
		Price:         p.Price,
		OldPrice:      p.OldPrice,
		CatName:       p.CatName,
		CatID:         p.CatID,
		SubCat:        p.SubCat,
		SubCatID:      p.SubCatID,
		ThirdSubCat:   p.ThirdSubCat,
		ThirdSubCatID: p.ThirdSubCatID,
		CountInStock:  p.CountInStock,
		Rating:        p.Rating,
		IsFeatured:    p.IsFeatured,
		Discount:      p.Discount,
		ProductRAMs:   append([]string{}, p.ProductRAMs...),
		Sizes:         append([]string{}, p.Sizes...),
		Weights:       append([]string{}, p.Weights...),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func newProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewProductDTO(&rows[i]))
	}
	return out
}

func searchDocument(p *models.Product) search.Document {
	return search.Document{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		CatName:     p.CatName,
		SubCat:      p.SubCat,
		ThirdSubCat: p.ThirdSubCat,
		Price:       p.Price.InexactFloat64(),
		Rating:      p.Rating,
		IsFeatured:  p.IsFeatured,
	}
}

// CreateInput holds the payload to create a product. Images are URLs
// returned by the upload endpoint.
type CreateInput struct {
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description" validate:"required"`
	Images        []string        `json:"images" validate:"omitempty,dive,url"`
	Brand         string          `json:"brand"`
	Price         decimal.Decimal `json:"price"`
	OldPrice      decimal.Decimal `json:"oldPrice"`
	CatName       string          `json:"catName"`
	CatID         *uuid.UUID      `json:"catId"`
	SubCat        string          `json:"subCat"`
	SubCatID      *uuid.UUID      `json:"subCatId"`
	ThirdSubCat   string          `json:"thirdSubCat"`
	ThirdSubCatID *uuid.UUID      `json:"thirdSubCatId"`
	CountInStock  int             `json:"countInStock" validate:"gte=0"`
	Rating        float64         `json:"rating" validate:"gte=0,lte=5"`
	IsFeatured    bool            `json:"isFeatured"`
	Discount      int             `json:"discount" validate:"gte=0,lte=100"`
	ProductRAMs   []string        `json:"productRam"`
	Sizes         []string        `json:"size"`
	Weights       []string        `json:"productWeight"`
}

// UpdateInput is a patch: nil fields are left unchanged.
type UpdateInput struct {
	Name          *string          `json:"name" validate:"omitempty,min=1"`
	Description   *string          `json:"description"`
	Images        []string         `json:"images" validate:"omitempty,dive,url"`
	Brand         *string          `json:"brand"`
	Price         *decimal.Decimal `json:"price"`
	OldPrice      *decimal.Decimal `json:"oldPrice"`
	CatName       *string          `json:"catName"`
	CatID         *uuid.UUID       `json:"catId"`
	SubCat        *string          `json:"subCat"`
	SubCatID      *uuid.UUID       `json:"subCatId"`
	ThirdSubCat   *string          `json:"thirdSubCat"`
	ThirdSubCatID *uuid.UUID       `json:"thirdSubCatId"`
	CountInStock  *int             `json:"countInStock" validate:"omitempty,gte=0"`
	Rating        *float64         `json:"rating" validate:"omitempty,gte=0,lte=5"`
	IsFeatured    *bool            `json:"isFeatured"`
	Discount      *int             `json:"discount" validate:"omitempty,gte=0,lte=100"`
	ProductRAMs   []string         `json:"productRam"`
	Sizes         []string         `json:"size"`
	Weights       []string         `json:"productWeight"`
}
