package partner

import (
	"strings"

	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/shared/valueobject"
)

// Client is a company the business quotes to.
// It owns its contacts; proforma invoices reference it without being owned.
type Client struct {
	shared.BaseAggregateRoot
	CompanyName string
	Email       string
	Phone       string
	Address     valueobject.Address
}

// ClientDetails holds the editable fields of a client
type ClientDetails struct {
	CompanyName string
	Email       string
	Phone       string
	Address     valueobject.Address
}

// NewClient creates a new client
func NewClient(details ClientDetails) (*Client, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}

	client := &Client{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
	}
	client.apply(details)

	client.AddDomainEvent(NewClientCreatedEvent(client))

	return client, nil
}

// Update replaces the client's editable fields
func (c *Client) Update(details ClientDetails) error {
	if err := details.validate(); err != nil {
		return err
	}

	c.apply(details)
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewClientUpdatedEvent(c))

	return nil
}

// MarkDeleted records the deletion event; the repository removes the row
func (c *Client) MarkDeleted() {
	c.AddDomainEvent(NewClientDeletedEvent(c))
}

func (c *Client) apply(d ClientDetails) {
	c.CompanyName = strings.TrimSpace(d.CompanyName)
	c.Email = strings.TrimSpace(d.Email)
	c.Phone = strings.TrimSpace(d.Phone)
	c.Address = d.Address
}

func (d ClientDetails) validate() error {
	name := strings.TrimSpace(d.CompanyName)
	if name == "" {
		return shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot exceed 200 characters")
	}
	if len(d.Email) > 120 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 120 characters")
	}
	if len(d.Phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	if len(d.Address.Street()) > 300 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 300 characters")
	}
	if len(d.Address.City()) > 100 || len(d.Address.Country()) > 100 {
		return shared.NewDomainError("INVALID_ADDRESS", "City and country cannot exceed 100 characters")
	}
	return nil
}
