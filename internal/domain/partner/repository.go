package partner

import (
	"context"

	"github.com/gcs/crm/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrClientHasInvoices is returned when deleting a client that is still
// referenced by proforma invoices.
var ErrClientHasInvoices = shared.NewDomainError("CLIENT_HAS_INVOICES", "Client still has proforma invoices and cannot be deleted")

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// FindByID finds a client by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindAll finds clients ordered by company name. Search matches company name or email.
	FindAll(ctx context.Context, filter shared.Filter) ([]Client, error)

	// Count counts clients matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Exists reports whether a client with the ID exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// HasInvoices reports whether any proforma invoice references the client
	HasInvoices(ctx context.Context, id uuid.UUID) (bool, error)

	// Save creates or updates a client
	Save(ctx context.Context, client *Client) error

	// Delete removes a client and its contacts in one transaction.
	// Returns ErrClientHasInvoices if any invoice references the client.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContactRepository defines the interface for contact persistence
type ContactRepository interface {
	// FindByID finds a contact by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Contact, error)

	// FindAll finds contacts ordered by name
	FindAll(ctx context.Context, filter shared.Filter) ([]Contact, error)

	// FindByClient finds all contacts of a client ordered by name
	FindByClient(ctx context.Context, clientID uuid.UUID) ([]Contact, error)

	// Count counts contacts matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a contact
	Save(ctx context.Context, contact *Contact) error

	// Delete removes a contact
	Delete(ctx context.Context, id uuid.UUID) error
}
