package models

import (
	"github.com/gcs/crm/internal/domain/partner"
	"github.com/gcs/crm/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ClientModel is the persistence model for the Client aggregate root.
type ClientModel struct {
	AggregateModel
	CompanyName string `gorm:"type:varchar(200);not null;index"`
	Email       string `gorm:"type:varchar(120)"`
	Phone       string `gorm:"type:varchar(50)"`
	Address     string `gorm:"type:varchar(300)"`
	City        string `gorm:"type:varchar(100)"`
	Country     string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *partner.Client {
	return &partner.Client{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CompanyName:       m.CompanyName,
		Email:             m.Email,
		Phone:             m.Phone,
		Address:           valueobject.NewAddress(m.Address, m.City, m.Country),
	}
}

// FromDomain populates the persistence model from a domain Client entity.
func (m *ClientModel) FromDomain(c *partner.Client) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.CompanyName = c.CompanyName
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address.Street()
	m.City = c.Address.City()
	m.Country = c.Address.Country()
}

// ClientModelFromDomain creates a new persistence model from a domain Client entity.
func ClientModelFromDomain(c *partner.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// ContactModel is the persistence model for the Contact entity.
type ContactModel struct {
	BaseModel
	ClientID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(200);not null;index"`
	Email    string    `gorm:"type:varchar(120)"`
	Phone    string    `gorm:"type:varchar(50)"`
	Position string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts the persistence model to a domain Contact entity.
func (m *ContactModel) ToDomain() *partner.Contact {
	return &partner.Contact{
		BaseEntity: m.BaseModel.ToDomain(),
		ClientID:   m.ClientID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Position:   m.Position,
	}
}

// FromDomain populates the persistence model from a domain Contact entity.
func (m *ContactModel) FromDomain(c *partner.Contact) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.ClientID = c.ClientID
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Position = c.Position
}

// ContactModelFromDomain creates a new persistence model from a domain Contact entity.
func ContactModelFromDomain(c *partner.Contact) *ContactModel {
	m := &ContactModel{}
	m.FromDomain(c)
	return m
}
