package catalog

import (
	"strings"

	"github.com/gcs/crm/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultUnit is the unit label used when none is given
const DefaultUnit = "unit"

// Product is a catalog entry that can be quoted on an invoice.
// Invoice items copy its description and price, so later edits here never
// change an existing invoice.
type Product struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	Unit        string
}

// ProductDetails holds the editable fields of a product
type ProductDetails struct {
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	Unit        string
}

// NewProduct creates a new product
func NewProduct(details ProductDetails) (*Product, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
	}
	product.apply(details)

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update replaces the product's editable fields
func (p *Product) Update(details ProductDetails) error {
	if err := details.validate(); err != nil {
		return err
	}

	p.apply(details)
	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// MarkDeleted records the deletion event
func (p *Product) MarkDeleted() {
	p.AddDomainEvent(NewProductDeletedEvent(p))
}

func (p *Product) apply(d ProductDetails) {
	p.Name = strings.TrimSpace(d.Name)
	p.Description = strings.TrimSpace(d.Description)
	p.UnitPrice = d.UnitPrice
	p.Unit = strings.TrimSpace(d.Unit)
	if p.Unit == "" {
		p.Unit = DefaultUnit
	}
}

func (d ProductDetails) validate() error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	if d.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if len(strings.TrimSpace(d.Unit)) > 50 {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot exceed 50 characters")
	}
	return nil
}
