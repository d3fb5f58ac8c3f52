package catalog

import (
	"context"
	"testing"

	"github.com/gcs/crm/internal/domain/catalog"
	"github.com/gcs/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

func newProduct(t *testing.T) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(catalog.ProductDetails{
		Name:      "Consulting hour",
		UnitPrice: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	product.ClearDomainEvents()
	return product
}

func TestProductService_Create(t *testing.T) {
	repo := new(MockProductRepository)
	pub := &recordingPublisher{}
	svc := NewProductService(repo, nil)
	svc.SetEventPublisher(pub)

	repo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

	resp, err := svc.Create(context.Background(), ProductRequest{
		Name:        "Consulting hour",
		Description: "Senior engineer",
		UnitPrice:   "125.50",
	})

	require.NoError(t, err)
	assert.Equal(t, "Consulting hour", resp.Name)
	assert.True(t, decimal.RequireFromString("125.50").Equal(resp.UnitPrice))
	assert.Equal(t, catalog.DefaultUnit, resp.Unit)
	assert.Equal(t, []string{catalog.EventTypeProductCreated}, pub.types)
}

func TestProductService_Create_KeepsUnit(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.Create(context.Background(), ProductRequest{Name: "Sample", UnitPrice: "0", Unit: "box"})

	require.NoError(t, err)
	assert.True(t, resp.UnitPrice.IsZero())
	assert.Equal(t, "box", resp.Unit)
}

func TestProductService_Create_Invalid(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo, nil)

	tests := []struct {
		name string
		req  ProductRequest
		code string
	}{
		{"non-numeric price", ProductRequest{Name: "A", UnitPrice: "abc"}, "INVALID_PRICE"},
		{"negative price", ProductRequest{Name: "A", UnitPrice: "-1"}, "INVALID_PRICE"},
		{"missing price", ProductRequest{Name: "A"}, "INVALID_PRICE"},
		{"exponent price", ProductRequest{Name: "A", UnitPrice: "1e9"}, "INVALID_PRICE"},
		{"over-scale price", ProductRequest{Name: "A", UnitPrice: "1.23456"}, "INVALID_PRICE"},
		{"blank name", ProductRequest{Name: " ", UnitPrice: "1"}, "INVALID_NAME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
		})
	}
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_Update(t *testing.T) {
	repo := new(MockProductRepository)
	pub := &recordingPublisher{}
	svc := NewProductService(repo, nil)
	svc.SetEventPublisher(pub)
	product := newProduct(t)

	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("Save", mock.Anything, product).Return(nil)

	resp, err := svc.Update(context.Background(), product.ID, ProductRequest{Name: "Consulting day", UnitPrice: "800"})

	require.NoError(t, err)
	assert.Equal(t, "Consulting day", resp.Name)
	assert.True(t, decimal.NewFromInt(800).Equal(resp.UnitPrice))
	assert.Equal(t, []string{catalog.EventTypeProductUpdated}, pub.types)
}

func TestProductService_List(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo, nil)
	product := newProduct(t)

	repo.On("FindAll", mock.Anything, mock.Anything).Return([]catalog.Product{*product}, nil)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	items, total, err := svc.List(context.Background(), ProductListFilter{Search: "consult"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Consulting hour", items[0].Name)
}

func TestProductService_Delete(t *testing.T) {
	repo := new(MockProductRepository)
	pub := &recordingPublisher{}
	svc := NewProductService(repo, nil)
	svc.SetEventPublisher(pub)
	product := newProduct(t)

	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("Delete", mock.Anything, product.ID).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), product.ID))
	assert.Equal(t, []string{catalog.EventTypeProductDeleted}, pub.types)

	missing := uuid.New()
	repo.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), missing), shared.ErrNotFound)
}
