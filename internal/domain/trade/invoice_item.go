package trade

import (
	"time"

	"github.com/gcs/crm/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceItem is one row on a proforma invoice.
// Description and unit price are a snapshot; ProductID only records where
// they were taken from and may be cleared when the product is deleted.
type InvoiceItem struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	ProductID   *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal // round(Quantity * UnitPrice, 2), fixed at construction
	Position    int
	CreatedAt   time.Time
}

func newInvoiceItem(invoiceID uuid.UUID, position int, draft LineItemDraft) InvoiceItem {
	return InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		ProductID:   draft.ProductID,
		Description: draft.Description,
		Quantity:    draft.Quantity,
		UnitPrice:   draft.UnitPrice,
		Total:       valueobject.RoundMoney(draft.Quantity.Mul(draft.UnitPrice)),
		Position:    position,
		CreatedAt:   time.Now(),
	}
}
