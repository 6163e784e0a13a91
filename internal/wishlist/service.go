package wishlist

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo *Repository
}

// Service exposes business rules for wishlist management.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]WishlistItemDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddInput) (*WishlistItemDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
}

type service struct {
	wishlistRepo *Repository
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	return &service{wishlistRepo: params.WishlistRepo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]WishlistItemDTO, error) {
	items, err := s.wishlistRepo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	out := make([]WishlistItemDTO, 0, len(items))
	for i := range items {
		out = append(out, newWishlistItemDTO(&items[i]))
	}
	return out, nil
}

// AddItem stores the snapshot once per user and product.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddInput) (*WishlistItemDTO, error) {
	if missing := missingFields(input); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", ")).
			WithDetails(map[string]any{"fields": missing})
	}

	exists, err := s.wishlistRepo.Exists(ctx, userID, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wishlist")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "Item already in wishlist")
	}

	item := &models.WishlistItem{
		UserID:       userID,
		ProductID:    input.ProductID,
		ProductTitle: strings.TrimSpace(input.ProductTitle),
		Image:        input.Image,
		Rating:       *input.Rating,
		Price:        *input.Price,
		OldPrice:     *input.OldPrice,
		Brand:        input.Brand,
		Discount:     *input.Discount,
	}
	if err := s.wishlistRepo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Item already in wishlist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	dto := newWishlistItemDTO(item)
	return &dto, nil
}

// RemoveItem drops one of the user's entries.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.wishlistRepo.RemoveItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wishlist item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}

func missingFields(in AddInput) []string {
	var missing []string
	if in.ProductID == uuid.Nil {
		missing = append(missing, "productId")
	}
	if strings.TrimSpace(in.ProductTitle) == "" {
		missing = append(missing, "productTitle")
	}
	if strings.TrimSpace(in.Image) == "" {
		missing = append(missing, "image")
	}
	if in.Rating == nil {
		missing = append(missing, "rating")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if in.OldPrice == nil {
		missing = append(missing, "oldPrice")
	}
	if strings.TrimSpace(in.Brand) == "" {
		missing = append(missing, "brand")
	}
	if in.Discount == nil {
		missing = append(missing, "discount")
	}
	return missing
}
