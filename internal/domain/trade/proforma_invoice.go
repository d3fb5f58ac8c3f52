package trade

import (
	"strings"

	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultValidityDays is how long a new invoice stays valid by default
const DefaultValidityDays = 30

// DefaultTaxRate is the tax percentage applied when none is given
var DefaultTaxRate = decimal.NewFromInt(16)

// MaxTaxRate bounds the tax percentage
var MaxTaxRate = decimal.NewFromInt(100)

// ErrTotalTooLarge is returned when derived amounts would not fit the ledger columns
var ErrTotalTooLarge = shared.NewDomainError("INVALID_LINE_ITEM", "Invoice total is too large")

// InvoiceHeader holds the operator-authored fields of an invoice
type InvoiceHeader struct {
	ClientID   uuid.UUID
	DateIssued valueobject.Date
	ValidUntil *valueobject.Date
	Status     InvoiceStatus
	Notes      string
	TaxRate    decimal.Decimal
}

// ProformaInvoice is the aggregate root for a quote sent to a client.
// Subtotal, TaxAmount and Total are derived from Items and TaxRate and are
// only changed through the methods below, each of which recalculates.
type ProformaInvoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string
	ClientID      uuid.UUID
	DateIssued    valueobject.Date
	ValidUntil    *valueobject.Date
	Status        InvoiceStatus
	Notes         string
	TaxRate       decimal.Decimal
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
	Items         []InvoiceItem

	// stored item count of a list row loaded without Items
	listedItems int
}

// NewProformaInvoice creates an unnumbered invoice. The number is assigned
// when the invoice is stored, see AssignNumber.
func NewProformaInvoice(header InvoiceHeader, drafts []LineItemDraft) (*ProformaInvoice, error) {
	if err := header.validate(); err != nil {
		return nil, err
	}

	invoice := &ProformaInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
	}
	items := buildItems(invoice.ID, drafts)
	if err := checkTotals(items, header.TaxRate); err != nil {
		return nil, err
	}
	invoice.applyHeader(header)
	invoice.Items = items
	invoice.recalculate()

	return invoice, nil
}

// AssignNumber sets the invoice number once, recording the creation event
func (p *ProformaInvoice) AssignNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(number) > 50 {
		return shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if p.InvoiceNumber != "" {
		return shared.NewDomainError("INVOICE_ALREADY_NUMBERED", "Invoice already has number "+p.InvoiceNumber)
	}

	p.InvoiceNumber = number
	p.AddDomainEvent(NewProformaInvoiceCreatedEvent(p))
	return nil
}

// Edit applies a new header and replaces every item in one step
func (p *ProformaInvoice) Edit(header InvoiceHeader, drafts []LineItemDraft) error {
	if err := header.validate(); err != nil {
		return err
	}
	items := buildItems(p.ID, drafts)
	if err := checkTotals(items, header.TaxRate); err != nil {
		return err
	}

	p.applyHeader(header)
	p.Items = items
	p.recalculate()
	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewProformaInvoiceUpdatedEvent(p))
	return nil
}

// ReplaceItems discards the current items, builds new ones with fresh IDs and recalculates
func (p *ProformaInvoice) ReplaceItems(drafts []LineItemDraft) error {
	items := buildItems(p.ID, drafts)
	if err := checkTotals(items, p.TaxRate); err != nil {
		return err
	}
	p.Items = items
	p.recalculate()
	p.Touch()
	return nil
}

// SetTaxRate changes the tax percentage and recalculates
func (p *ProformaInvoice) SetTaxRate(rate decimal.Decimal) error {
	if err := validateTaxRate(rate); err != nil {
		return err
	}
	if err := checkTotals(p.Items, rate); err != nil {
		return err
	}
	p.TaxRate = rate
	p.recalculate()
	p.Touch()
	return nil
}

// SetStatus changes the status. Any status may follow any other.
func (p *ProformaInvoice) SetStatus(status InvoiceStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invalid invoice status: "+status.String())
	}
	p.Status = status
	p.Touch()
	return nil
}

// MarkDeleted records the deletion event
func (p *ProformaInvoice) MarkDeleted() {
	p.AddDomainEvent(NewProformaInvoiceDeletedEvent(p))
}

// ItemCount returns the number of items. Invoices read by list queries
// carry the stored count instead of the items themselves.
func (p *ProformaInvoice) ItemCount() int {
	if len(p.Items) > 0 {
		return len(p.Items)
	}
	return p.listedItems
}

// SetListedItemCount records the stored item count of an invoice loaded
// without its items
func (p *ProformaInvoice) SetListedItemCount(n int) {
	p.listedItems = n
}

func (p *ProformaInvoice) applyHeader(h InvoiceHeader) {
	p.ClientID = h.ClientID
	p.DateIssued = h.DateIssued
	p.ValidUntil = h.ValidUntil
	p.Status = h.Status
	p.Notes = strings.TrimSpace(h.Notes)
	p.TaxRate = h.TaxRate
}

func buildItems(invoiceID uuid.UUID, drafts []LineItemDraft) []InvoiceItem {
	items := make([]InvoiceItem, 0, len(drafts))
	for i, draft := range drafts {
		items = append(items, newInvoiceItem(invoiceID, i, draft))
	}
	return items
}

func (p *ProformaInvoice) recalculate() {
	p.Subtotal, p.TaxAmount, p.Total = computeTotals(p.Items, p.TaxRate)
}

func computeTotals(items []InvoiceItem, taxRate decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Total)
	}
	subtotal = valueobject.RoundMoney(sum)
	tax = valueobject.RoundMoney(subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)))
	total = valueobject.RoundMoney(subtotal.Add(tax))
	return subtotal, tax, total
}

// checkTotals rejects items whose line, subtotal or grand total would overflow DECIMAL(18,2)
func checkTotals(items []InvoiceItem, taxRate decimal.Decimal) error {
	for _, item := range items {
		if !valueobject.FitsMoney(item.Total) {
			return ErrTotalTooLarge
		}
	}
	subtotal, tax, total := computeTotals(items, taxRate)
	if !valueobject.FitsMoney(subtotal) || !valueobject.FitsMoney(tax) || !valueobject.FitsMoney(total) {
		return ErrTotalTooLarge
	}
	return nil
}

func (h InvoiceHeader) validate() error {
	if h.ClientID == uuid.Nil {
		return shared.NewDomainError("INVALID_CLIENT", "Invoice must have a client")
	}
	if h.DateIssued.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Date issued is required")
	}
	if !h.Status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invalid invoice status: "+h.Status.String())
	}
	return validateTaxRate(h.TaxRate)
}

func validateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}
	if rate.GreaterThan(MaxTaxRate) {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot exceed 100")
	}
	if rate.Exponent() < -valueobject.AmountFractionDigits {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot have more than 4 decimal places")
	}
	return nil
}
