package trade

import (
	"context"

	"github.com/gcs/crm/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by ProformaInvoiceRepository.FindAll and Count
const (
	FilterStatus   = "status"
	FilterClientID = "client_id"
)

// ProformaInvoiceRepository defines the interface for proforma invoice persistence
type ProformaInvoiceRepository interface {
	// FindByID finds an invoice with its items ordered by position
	FindByID(ctx context.Context, id uuid.UUID) (*ProformaInvoice, error)

	// FindByNumber finds an invoice by its number
	FindByNumber(ctx context.Context, number string) (*ProformaInvoice, error)

	// FindAll finds invoices newest first, without items.
	// Search matches the invoice number; FilterStatus and FilterClientID narrow the result.
	FindAll(ctx context.Context, filter shared.Filter) ([]ProformaInvoice, error)

	// FindByClient finds all invoices of a client newest first, without items
	FindByClient(ctx context.Context, clientID uuid.UUID) ([]ProformaInvoice, error)

	// FindRecent returns the most recently created invoices, without items
	FindRecent(ctx context.Context, limit int) ([]ProformaInvoice, error)

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByStatus counts invoices in a status
	CountByStatus(ctx context.Context, status InvoiceStatus) (int64, error)

	// FindLatestNumber returns the greatest invoice number starting with
	// pattern, or "" when there is none
	FindLatestNumber(ctx context.Context, pattern string) (string, error)

	// Create reserves the next number of scope, assigns it to the invoice and
	// inserts the invoice with its items, all in one transaction.
	// Returns ErrInvoiceNumberConflict when the number is already taken.
	Create(ctx context.Context, invoice *ProformaInvoice, scope NumberScope) error

	// Update saves the header and replaces every stored item with the invoice's items
	Update(ctx context.Context, invoice *ProformaInvoice) error

	// Delete removes an invoice and its items
	Delete(ctx context.Context, id uuid.UUID) error
}
