package trade

import (
	"github.com/gcs/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProformaInvoice = "ProformaInvoice"

// Event type constants
const (
	EventTypeProformaInvoiceCreated = "ProformaInvoiceCreated"
	EventTypeProformaInvoiceUpdated = "ProformaInvoiceUpdated"
	EventTypeProformaInvoiceDeleted = "ProformaInvoiceDeleted"
)

// ProformaInvoiceCreatedEvent is published once an invoice has been numbered and stored
type ProformaInvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
}

// NewProformaInvoiceCreatedEvent creates a new ProformaInvoiceCreatedEvent
func NewProformaInvoiceCreatedEvent(invoice *ProformaInvoice) *ProformaInvoiceCreatedEvent {
	return &ProformaInvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProformaInvoiceCreated, AggregateTypeProformaInvoice, invoice.ID),
		InvoiceID:       invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		ClientID:        invoice.ClientID,
		Total:           invoice.Total,
		ItemCount:       invoice.ItemCount(),
	}
}

// ProformaInvoiceUpdatedEvent is published when an invoice is edited
type ProformaInvoiceUpdatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Status        InvoiceStatus   `json:"status"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
}

// NewProformaInvoiceUpdatedEvent creates a new ProformaInvoiceUpdatedEvent
func NewProformaInvoiceUpdatedEvent(invoice *ProformaInvoice) *ProformaInvoiceUpdatedEvent {
	return &ProformaInvoiceUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProformaInvoiceUpdated, AggregateTypeProformaInvoice, invoice.ID),
		InvoiceID:       invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		Status:          invoice.Status,
		Total:           invoice.Total,
		ItemCount:       invoice.ItemCount(),
	}
}

// ProformaInvoiceDeletedEvent is published when an invoice and its items are deleted
type ProformaInvoiceDeletedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
}

// NewProformaInvoiceDeletedEvent creates a new ProformaInvoiceDeletedEvent
func NewProformaInvoiceDeletedEvent(invoice *ProformaInvoice) *ProformaInvoiceDeletedEvent {
	return &ProformaInvoiceDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProformaInvoiceDeleted, AggregateTypeProformaInvoice, invoice.ID),
		InvoiceID:       invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
	}
}
