package catalog

import (
	"context"
	"errors"
	"strings"

	appevent "github.com/gcs/crm/internal/application/event"
	"github.com/gcs/crm/internal/domain/catalog"
	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
	events      *appevent.Dispatcher
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		events:      appevent.NewDispatcher(nil, logger),
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher receiving product events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = appevent.NewDispatcher(publisher, s.logger)
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req ProductRequest) (*ProductResponse, error) {
	details, err := req.details()
	if err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(details)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, product)

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name))

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves products ordered by name
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	domainFilter := shared.NewFilter(filter.Page, filter.PageSize, filter.Search, filter.OrderBy, filter.OrderDir)

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// Update replaces a product's fields. Existing invoice items keep their snapshot.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req ProductRequest) (*ProductResponse, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	details, err := req.details()
	if err != nil {
		return nil, err
	}
	if err := product.Update(details); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// Delete removes a product; invoice items referencing it lose the reference
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	product.MarkDeleted()
	s.events.Dispatch(ctx, product)

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

func (s *ProductService) findProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Product not found")
		}
		return nil, err
	}
	return product, nil
}

func (r ProductRequest) details() (catalog.ProductDetails, error) {
	if strings.TrimSpace(r.UnitPrice) == "" {
		return catalog.ProductDetails{}, shared.NewDomainError("INVALID_PRICE", "Unit price is required")
	}
	price, err := valueobject.ParseAmount(r.UnitPrice)
	if err != nil {
		return catalog.ProductDetails{}, shared.NewDomainError("INVALID_PRICE", "Unit price must be a number")
	}
	return catalog.ProductDetails{
		Name:        r.Name,
		Description: r.Description,
		UnitPrice:   price,
		Unit:        r.Unit,
	}, nil
}
