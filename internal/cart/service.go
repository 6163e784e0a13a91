package cart

import (
	"context"
	"errors"

	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes cart business rules. Every operation is scoped to the
// authenticated user.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID) (*CartItemDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]CartItemDTO, error)
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartItemDTO, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	CartRepo    *Repository
	ProductRepo *products.Repository
}

type service struct {
	cartRepo    *Repository
	productRepo *products.Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	return &service{cartRepo: params.CartRepo, productRepo: params.ProductRepo}, nil
}

// Add puts one unit of the product in the cart. A product already in the
// cart is rejected rather than incremented.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) (*CartItemDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if _, err := s.cartRepo.FindByUserAndProduct(ctx, userID, productID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "Item already in cart")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: 1}
	if err := s.cartRepo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Item already in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
	}
	dto := newCartItemDTO(item, product)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]CartItemDTO, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	found, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	out := make([]CartItemDTO, 0, len(items))
	for i := range items {
		var product *models.Product
		if p, ok := found[items[i].ProductID]; ok {
			product = &p
		}
		out = append(out, newCartItemDTO(&items[i], product))
	}
	return out, nil
}

// UpdateQuantity sets the line quantity. Zero removes the line and returns
// nil.
func (s *service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartItemDTO, error) {
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty cannot be negative")
	}
	item, err := s.cartRepo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if qty == 0 {
		if err := s.cartRepo.Delete(ctx, userID, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		return nil, nil
	}

	if err := s.cartRepo.UpdateQuantity(ctx, item.ID, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	item.Quantity = qty
	dto := newCartItemDTO(item, nil)
	return &dto, nil
}

func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.cartRepo.Delete(ctx, userID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return nil
}
