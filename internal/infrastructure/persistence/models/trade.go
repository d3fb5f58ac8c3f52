package models

import (
	"time"

	"github.com/gcs/crm/internal/domain/shared/valueobject"
	"github.com/gcs/crm/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProformaInvoiceModel is the persistence model for the ProformaInvoice aggregate root.
type ProformaInvoiceModel struct {
	AggregateModel
	InvoiceNumber string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	ClientID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	DateIssued    datatypes.Date      `gorm:"not null"`
	ValidUntil    *datatypes.Date
	Status        trade.InvoiceStatus `gorm:"type:varchar(20);not null;default:'Draft';index"`
	Notes         string              `gorm:"type:text"`
	TaxRate       decimal.Decimal     `gorm:"type:decimal(7,4);not null"`
	Subtotal      decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	TaxAmount     decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Total         decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Items         []InvoiceItemModel  `gorm:"foreignKey:InvoiceID;references:ID"`
	// ItemCount is only filled by queries selecting ItemCountColumn
	ItemCount int `gorm:"->;-:migration"`
}

// ItemCountColumn selects the invoice columns plus the number of stored items
const ItemCountColumn = "proforma_invoices.*, " +
	"(SELECT COUNT(*) FROM invoice_items WHERE invoice_items.invoice_id = proforma_invoices.id) AS item_count"

// TableName returns the table name for GORM
func (ProformaInvoiceModel) TableName() string {
	return "proforma_invoices"
}

// ToDomain converts the persistence model to a domain ProformaInvoice entity.
func (m *ProformaInvoiceModel) ToDomain() *trade.ProformaInvoice {
	invoice := &trade.ProformaInvoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		ClientID:          m.ClientID,
		DateIssued:        valueobject.NewDate(time.Time(m.DateIssued)),
		Status:            m.Status,
		Notes:             m.Notes,
		TaxRate:           m.TaxRate,
		Subtotal:          m.Subtotal,
		TaxAmount:         m.TaxAmount,
		Total:             m.Total,
		Items:             make([]trade.InvoiceItem, len(m.Items)),
	}
	if m.ValidUntil != nil {
		until := valueobject.NewDate(time.Time(*m.ValidUntil))
		invoice.ValidUntil = &until
	}
	for i, item := range m.Items {
		invoice.Items[i] = *item.ToDomain()
	}
	if len(m.Items) == 0 {
		invoice.SetListedItemCount(m.ItemCount)
	}
	return invoice
}

// FromDomain populates the persistence model from a domain ProformaInvoice entity.
func (m *ProformaInvoiceModel) FromDomain(p *trade.ProformaInvoice) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.InvoiceNumber = p.InvoiceNumber
	m.ClientID = p.ClientID
	m.DateIssued = datatypes.Date(p.DateIssued.Time())
	m.ValidUntil = nil
	if p.ValidUntil != nil {
		until := datatypes.Date(p.ValidUntil.Time())
		m.ValidUntil = &until
	}
	m.Status = p.Status
	m.Notes = p.Notes
	m.TaxRate = p.TaxRate
	m.Subtotal = p.Subtotal
	m.TaxAmount = p.TaxAmount
	m.Total = p.Total
	m.Items = make([]InvoiceItemModel, len(p.Items))
	for i := range p.Items {
		m.Items[i] = *InvoiceItemModelFromDomain(&p.Items[i])
	}
}

// ProformaInvoiceModelFromDomain creates a new persistence model from a domain ProformaInvoice entity.
func ProformaInvoiceModelFromDomain(p *trade.ProformaInvoice) *ProformaInvoiceModel {
	m := &ProformaInvoiceModel{}
	m.FromDomain(p)
	return m
}

// InvoiceItemModel is the persistence model for the InvoiceItem entity.
type InvoiceItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"`
	Description string          `gorm:"type:varchar(300);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Position    int             `gorm:"not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem entity.
func (m *InvoiceItemModel) ToDomain() *trade.InvoiceItem {
	return &trade.InvoiceItem{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		ProductID:   m.ProductID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Total:       m.Total,
		Position:    m.Position,
		CreatedAt:   m.CreatedAt,
	}
}

// InvoiceItemModelFromDomain creates a new persistence model from a domain InvoiceItem entity.
func InvoiceItemModelFromDomain(i *trade.InvoiceItem) *InvoiceItemModel {
	return &InvoiceItemModel{
		ID:          i.ID,
		InvoiceID:   i.InvoiceID,
		ProductID:   i.ProductID,
		Description: i.Description,
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
		Total:       i.Total,
		Position:    i.Position,
		CreatedAt:   i.CreatedAt,
	}
}

// InvoiceSequenceModel holds the last number handed out for one prefix and year.
// Rows are locked while a number is reserved.
type InvoiceSequenceModel struct {
	Prefix    string    `gorm:"type:varchar(50);primaryKey"`
	Year      int       `gorm:"primaryKey;autoIncrement:false"`
	LastValue int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}

// All returns every model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&ClientModel{},
		&ContactModel{},
		&ProductModel{},
		&ProformaInvoiceModel{},
		&InvoiceItemModel{},
		&InvoiceSequenceModel{},
	}
}
