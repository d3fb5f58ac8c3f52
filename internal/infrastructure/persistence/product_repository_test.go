package persistence

import (
	"context"
	"testing"

	"github.com/gcs/crm/internal/domain/catalog"
	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustProduct(t *testing.T, name, description string, price int64) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(catalog.ProductDetails{
		Name:        name,
		Description: description,
		UnitPrice:   decimal.NewFromInt(price),
	})
	require.NoError(t, err)
	return product
}

func TestGormProductRepository(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormProductRepository(db.DB)
	ctx := context.Background()

	widget := mustProduct(t, "Widget", "Blue steel widget", 25)
	gadget := mustProduct(t, "Gadget", "Multi-purpose tool", 40)
	require.NoError(t, repo.Save(ctx, widget))
	require.NoError(t, repo.Save(ctx, gadget))

	t.Run("find by id keeps price and default unit", func(t *testing.T) {
		found, err := repo.FindByID(ctx, widget.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(25).Equal(found.UnitPrice))
		assert.Equal(t, catalog.DefaultUnit, found.Unit)
	})

	t.Run("find all ordered by name with search", func(t *testing.T) {
		products, err := repo.FindAll(ctx, shared.Filter{})
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Gadget", products[0].Name)

		products, err = repo.FindAll(ctx, shared.Filter{Search: "steel"})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, widget.ID, products[0].ID)

		total, err := repo.Count(ctx, shared.Filter{Search: "TOOL"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("find by ids skips unknown", func(t *testing.T) {
		products, err := repo.FindByIDs(ctx, []uuid.UUID{widget.ID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Widget", products[0].Name)

		products, err = repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, products)
	})
}

func TestGormProductRepository_DeleteDetachesInvoiceItems(t *testing.T) {
	db := newTestDatabase(t)
	products := NewGormProductRepository(db.DB)
	invoices := NewGormProformaInvoiceRepository(db.DB)
	ctx := context.Background()

	widget := mustProduct(t, "Widget", "", 25)
	require.NoError(t, products.Save(ctx, widget))

	item := lineItem("Widget", 2, 25)
	item.ProductID = &widget.ID
	invoice := mustInvoice(t, uuid.New(), "2025-03-01", item)
	require.NoError(t, invoices.Create(ctx, invoice, trade.NewNumberScope("", 2025)))

	require.NoError(t, products.Delete(ctx, widget.ID))

	_, err := products.FindByID(ctx, widget.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	found, err := invoices.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Nil(t, found.Items[0].ProductID)
	assert.Equal(t, "Widget", found.Items[0].Description)
	assert.True(t, decimal.NewFromInt(50).Equal(found.Items[0].Total))

	assert.ErrorIs(t, products.Delete(ctx, widget.ID), shared.ErrNotFound)
}
