package products

import (
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListFilters describe the supported filter knobs for browse endpoints. Nil
// and empty values are ignored.
type ListFilters struct {
	CatID           *uuid.UUID
	SubCatID        *uuid.UUID
	ThirdSubCatID   *uuid.UUID
	CatName         string
	SubCatName      string
	ThirdSubCatName string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	MinRating       *float64
	Featured        *bool
	NameContains    string
}

// ListInput captures filters plus page-number pagination.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}
