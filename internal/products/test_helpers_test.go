package products

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(dbtest.Open(t))
}

func mustCreateTestProduct(t *testing.T, repo *Repository, mutate func(p *models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:         "Product " + uuid.NewString()[:8],
		Description:  "test product",
		Brand:        "Acme",
		Price:        decimal.RequireFromString("100"),
		OldPrice:     decimal.RequireFromString("120"),
		CountInStock: 10,
		Images:       []string{"https://cdn.test/images/product-a.png"},
	}
	if mutate != nil {
		mutate(product)
	}
	require.NoError(t, repo.Create(context.Background(), product))
	return product
}
