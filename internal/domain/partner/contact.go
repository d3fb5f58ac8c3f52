package partner

import (
	"strings"

	"github.com/gcs/crm/internal/domain/shared"
	"github.com/google/uuid"
)

// Contact is a person at a client company
type Contact struct {
	shared.BaseEntity
	ClientID uuid.UUID
	Name     string
	Email    string
	Phone    string
	Position string
}

// ContactDetails holds the editable fields of a contact
type ContactDetails struct {
	ClientID uuid.UUID
	Name     string
	Email    string
	Phone    string
	Position string
}

// NewContact creates a new contact belonging to a client
func NewContact(details ContactDetails) (*Contact, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}

	contact := &Contact{BaseEntity: shared.NewBaseEntity()}
	contact.apply(details)
	return contact, nil
}

// Update replaces the contact's editable fields, including its client
func (c *Contact) Update(details ContactDetails) error {
	if err := details.validate(); err != nil {
		return err
	}
	c.apply(details)
	c.Touch()
	return nil
}

func (c *Contact) apply(d ContactDetails) {
	c.ClientID = d.ClientID
	c.Name = strings.TrimSpace(d.Name)
	c.Email = strings.TrimSpace(d.Email)
	c.Phone = strings.TrimSpace(d.Phone)
	c.Position = strings.TrimSpace(d.Position)
}

func (d ContactDetails) validate() error {
	if d.ClientID == uuid.Nil {
		return shared.NewDomainError("INVALID_CLIENT", "Contact must belong to a client")
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Contact name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Contact name cannot exceed 200 characters")
	}
	if len(d.Email) > 120 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 120 characters")
	}
	if len(d.Phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	if len(d.Position) > 100 {
		return shared.NewDomainError("INVALID_POSITION", "Position cannot exceed 100 characters")
	}
	return nil
}
