package cart

import (
	"context"
	"testing"

	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		CartRepo:    NewRepository(conn),
		ProductRepo: products.NewRepository(conn),
	})
	require.NoError(t, err)
	return svc, conn
}

func mustCreateProduct(t *testing.T, conn *gorm.DB) *models.Product {
	t.Helper()
	product := &models.Product{Name: "Lamp", Description: "desk lamp", Price: decimal.NewFromInt(25), CountInStock: 4}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func TestAddRejectsDuplicates(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	userID := uuid.New()
	product := mustCreateProduct(t, conn)

	item, err := svc.Add(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	require.NotNil(t, item.Product)
	assert.Equal(t, "Lamp", item.Product.Name)

	_, err = svc.Add(ctx, userID, product.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, "Item already in cart", pkgerrors.As(err).Message())

	_, err = svc.Add(ctx, uuid.New(), product.ID)
	require.NoError(t, err, "other users keep separate carts")

	_, err = svc.Add(ctx, userID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListJoinsProductSnapshot(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	userID := uuid.New()
	kept := mustCreateProduct(t, conn)
	gone := mustCreateProduct(t, conn)

	_, err := svc.Add(ctx, userID, kept.ID)
	require.NoError(t, err)
	_, err = svc.Add(ctx, userID, gone.ID)
	require.NoError(t, err)
	require.NoError(t, conn.Delete(&models.Product{}, "id = ?", gone.ID).Error)

	items, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	byProduct := map[uuid.UUID]CartItemDTO{}
	for _, item := range items {
		byProduct[item.ProductID] = item
	}
	assert.NotNil(t, byProduct[kept.ID].Product)
	assert.Nil(t, byProduct[gone.ID].Product)

	empty, err := svc.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateQuantityZeroDeletes(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	userID := uuid.New()
	product := mustCreateProduct(t, conn)
	_, err := svc.Add(ctx, userID, product.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateQuantity(ctx, userID, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	_, err = svc.UpdateQuantity(ctx, userID, product.ID, -1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	removed, err := svc.UpdateQuantity(ctx, userID, product.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, removed)

	items, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.UpdateQuantity(ctx, userID, product.ID, 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRemoveIsScopedToOwner(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	owner := uuid.New()
	product := mustCreateProduct(t, conn)
	item, err := svc.Add(ctx, owner, product.ID)
	require.NoError(t, err)

	err = svc.Remove(ctx, uuid.New(), item.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.Remove(ctx, owner, item.ID))
}
