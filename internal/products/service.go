package products

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/search"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service exposes catalog product operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, input ListInput) (types.Page[ProductDTO], error)
	Featured(ctx context.Context) ([]ProductDTO, error)
	Count(ctx context.Context) (int64, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (*ProductDTO, error)
	Search(ctx context.Context, query string, params pagination.Params) (types.Page[ProductDTO], error)
	UploadImages(ctx context.Context, files []media.File) ([]string, error)
}

// ServiceParams groups dependencies for the product service. Index and Media
// are optional.
type ServiceParams struct {
	Repo   *Repository
	Index  search.ProductIndex
	Media  media.Service
	Logger *logger.Logger
}

type service struct {
	repo  *Repository
	index search.ProductIndex
	media media.Service
	logg  *logger.Logger
}

// NewService builds a product service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	index := params.Index
	if index == nil {
		index = search.Noop{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, index: index, media: params.Media, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ProductDTO, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and description are required")
	}
	if input.Price.IsNegative() || input.OldPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.CountInStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "countInStock cannot be negative")
	}

	product := &models.Product{
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Brand:         input.Brand,
		Price:         input.Price,
		OldPrice:      input.OldPrice,
		CatName:       input.CatName,
		CatID:         input.CatID,
		SubCat:        input.SubCat,
		SubCatID:      input.SubCatID,
		ThirdSubCat:   input.ThirdSubCat,
		ThirdSubCatID: input.ThirdSubCatID,
		CountInStock:  input.CountInStock,
		Rating:        input.Rating,
		IsFeatured:    input.IsFeatured,
		Discount:      input.Discount,
		ProductRAMs:   nonNil(input.ProductRAMs),
		Sizes:         nonNil(input.Sizes),
		Weights:       nonNil(input.Weights),
		Images:        nonNil(input.Images),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	s.syncIndex(ctx, product)

	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	updates, err := buildUpdates(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, mapRepoError(err, "update product")
	}

	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.syncIndex(ctx, product)

	dto := NewProductDTO(product)
	return &dto, nil
}

func buildUpdates(input UpdateInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Brand != nil {
		updates["brand"] = *input.Brand
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = *input.Price
	}
	if input.OldPrice != nil {
		if input.OldPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "oldPrice cannot be negative")
		}
		updates["old_price"] = *input.OldPrice
	}
	if input.CatName != nil {
		updates["cat_name"] = *input.CatName
	}
	if input.CatID != nil {
		updates["cat_id"] = *input.CatID
	}
	if input.SubCat != nil {
		updates["sub_cat"] = *input.SubCat
	}
	if input.SubCatID != nil {
		updates["sub_cat_id"] = *input.SubCatID
	}
	if input.ThirdSubCat != nil {
		updates["third_sub_cat"] = *input.ThirdSubCat
	}
	if input.ThirdSubCatID != nil {
		updates["third_sub_cat_id"] = *input.ThirdSubCatID
	}
	if input.CountInStock != nil {
		if *input.CountInStock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "countInStock cannot be negative")
		}
		updates["count_in_stock"] = *input.CountInStock
	}
	if input.Rating != nil {
		updates["rating"] = *input.Rating
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}
	if input.Discount != nil {
		updates["discount"] = *input.Discount
	}
	if input.Images != nil {
		updates["images"] = datatypes.JSONSlice[string](input.Images)
	}
	if input.ProductRAMs != nil {
		updates["product_rams"] = datatypes.JSONSlice[string](input.ProductRAMs)
	}
	if input.Sizes != nil {
		updates["sizes"] = datatypes.JSONSlice[string](input.Sizes)
	}
	if input.Weights != nil {
		updates["weights"] = datatypes.JSONSlice[string](input.Weights)
	}
	return updates, nil
}

// Delete removes the product unconditionally. Image and index cleanup are
// best effort and only logged.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "delete product")
	}

	logCtx := s.logg.WithField(ctx, "product_id", id.String())
	if s.media != nil && len(product.Images) > 0 {
		if err := s.media.DeleteAll(ctx, product.Images); err != nil {
			s.logg.Error(logCtx, "products.delete.image_cleanup_failed", err)
		}
	}
	if err := s.index.Delete(ctx, id.String()); err != nil {
		s.logg.Error(logCtx, "products.delete.index_failed", err)
	}
	return nil
}

// List pages through products. Asking for a page past the end of a non-empty
// result is reported as not found.
func (s *service) List(ctx context.Context, input ListInput) (types.Page[ProductDTO], error) {
	params := pagination.Normalize(input.Pagination)
	if err := validatePriceRange(input.Filters.MinPrice, input.Filters.MaxPrice); err != nil {
		return types.Page[ProductDTO]{}, err
	}
	rows, total, err := s.repo.List(ctx, input.Filters, params)
	if err != nil {
		return types.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	if pagination.OutOfRange(params, total) {
		return types.Page[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeNotFound, "page not found")
	}
	return newPage(newProductDTOs(rows), total, params), nil
}

func validatePriceRange(minPrice, maxPrice *decimal.Decimal) error {
	if minPrice != nil && minPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "minPrice cannot be negative")
	}
	if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(*maxPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "minPrice cannot exceed maxPrice")
	}
	return nil
}

func (s *service) Featured(ctx context.Context) ([]ProductDTO, error) {
	featured := true
	rows, _, err := s.repo.List(ctx, ListFilters{Featured: &featured}, pagination.Params{Page: 1, PerPage: pagination.MaxPerPage})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	return count, nil
}

// DecrementStock lowers countInStock by qty without ever going negative.
func (s *service) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (*ProductDTO, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.DecrementStock(ctx, id, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
			WithDetails(map[string]any{"available": product.CountInStock, "requested": qty})
	}
	return s.Get(ctx, id)
}

// Search queries the index and falls back to a name match when the index is
// disabled or unavailable.
func (s *service) Search(ctx context.Context, query string, params pagination.Params) (types.Page[ProductDTO], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.Page[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "q is required")
	}
	params = pagination.Normalize(params)

	res, err := s.index.Search(ctx, query, params.Offset(), params.Limit())
	if err != nil {
		if !errors.Is(err, search.ErrDisabled) {
			s.logg.Error(s.logg.WithField(ctx, "query", query), "products.search.index_failed", err)
		}
		return s.List(ctx, ListInput{Filters: ListFilters{NameContains: query}, Pagination: params})
	}

	ids := make([]uuid.UUID, 0, len(res.IDs))
	for _, raw := range res.IDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return types.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load search results")
	}
	items := make([]ProductDTO, 0, len(ids))
	for _, id := range ids {
		if product, ok := found[id]; ok {
			items = append(items, NewProductDTO(&product))
		}
	}
	return newPage(items, res.Total, params), nil
}

func (s *service) UploadImages(ctx context.Context, files []media.File) ([]string, error) {
	if s.media == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image storage unavailable")
	}
	return s.media.Upload(ctx, enums.MediaKindProduct, files)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "load product")
	}
	return product, nil
}

func (s *service) syncIndex(ctx context.Context, product *models.Product) {
	if err := s.index.Index(ctx, searchDocument(product)); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", product.ID.String()), "products.index.sync_failed", err)
	}
}

func newPage(items []ProductDTO, total int64, params pagination.Params) types.Page[ProductDTO] {
	return types.Page[ProductDTO]{
		Items:      items,
		Page:       params.Page,
		PerPage:    params.PerPage,
		Total:      total,
		TotalPages: pagination.TotalPages(total, params.PerPage),
	}
}

func mapRepoError(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
