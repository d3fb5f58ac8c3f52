package printing

import (
	"time"

	"github.com/gcs/crm/internal/domain/partner"
	"github.com/gcs/crm/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// InvoiceDocument is the view of an invoice bound to the HTML template
type InvoiceDocument struct {
	CompanyName string
	Number      string
	Status      string
	DateIssued  string
	ValidUntil  string
	Notes       string
	Client      PartyView
	Contact     *ContactView
	Items       []ItemView
	Subtotal    decimal.Decimal
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	Total       decimal.Decimal
	GeneratedAt time.Time
}

// PartyView is the billed client
type PartyView struct {
	CompanyName string
	Email       string
	Phone       string
	Street      string
	City        string
	Country     string
}

// ContactView is the client's contact person
type ContactView struct {
	Name     string
	Position string
	Email    string
	Phone    string
}

// ItemView is one printed line
type ItemView struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// NewInvoiceDocument builds the template view; contact may be nil
func NewInvoiceDocument(invoice *trade.ProformaInvoice, client *partner.Client, contact *partner.Contact) *InvoiceDocument {
	doc := &InvoiceDocument{
		Number:     invoice.InvoiceNumber,
		Status:     invoice.Status.String(),
		DateIssued: invoice.DateIssued.String(),
		Notes:      invoice.Notes,
		Subtotal:   invoice.Subtotal,
		TaxRate:    invoice.TaxRate,
		TaxAmount:  invoice.TaxAmount,
		Total:      invoice.Total,
		Items:      make([]ItemView, 0, len(invoice.Items)),
	}
	if invoice.ValidUntil != nil {
		doc.ValidUntil = invoice.ValidUntil.String()
	}
	if client != nil {
		doc.Client = PartyView{
			CompanyName: client.CompanyName,
			Email:       client.Email,
			Phone:       client.Phone,
			Street:      client.Address.Street(),
			City:        client.Address.City(),
			Country:     client.Address.Country(),
		}
	}
	if contact != nil {
		doc.Contact = &ContactView{
			Name:     contact.Name,
			Position: contact.Position,
			Email:    contact.Email,
			Phone:    contact.Phone,
		}
	}
	for _, item := range invoice.Items {
		doc.Items = append(doc.Items, ItemView{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		})
	}
	return doc
}
