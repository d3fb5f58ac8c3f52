package trade

import (
	"time"

	"github.com/gcs/crm/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Proforma Invoice DTOs
// =============================================================================

// InvoiceRequest represents a request to create or edit a proforma invoice.
// Line items arrive as four parallel lists, as posted by the invoice form;
// the description list decides how many rows there are.
type InvoiceRequest struct {
	ClientID   string `json:"client_id" form:"client_id" binding:"required,uuid"`
	DateIssued string `json:"date_issued" form:"date_issued" binding:"required,datetime=2006-01-02"`
	ValidUntil string `json:"valid_until" form:"valid_until" binding:"omitempty,datetime=2006-01-02"`
	Status     string `json:"status" form:"status" binding:"omitempty,invoice_status"`
	Notes      string `json:"notes" form:"notes" binding:"max=5000"`
	TaxRate    string `json:"tax_rate" form:"tax_rate" binding:"omitempty,decimal_string"`

	ItemDescription []string `json:"item_description" form:"item_description"`
	ItemQuantity    []string `json:"item_quantity" form:"item_quantity"`
	ItemUnitPrice   []string `json:"item_unit_price" form:"item_unit_price"`
	ItemProductID   []string `json:"item_product_id" form:"item_product_id"`
}

// lineItemInputs zips the parallel item lists into rows
func (r InvoiceRequest) lineItemInputs() []trade.LineItemInput {
	return trade.ZipLineItemInputs(r.ItemDescription, r.ItemQuantity, r.ItemUnitPrice, r.ItemProductID)
}

// InvoiceListFilter represents filter options for listing invoices
type InvoiceListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,invoice_status"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// InvoiceItemResponse represents one line item in API responses
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	Position    int             `json:"position"`
}

// InvoiceResponse represents a proforma invoice in API responses.
// Lists leave Items empty.
type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	ClientID      uuid.UUID             `json:"client_id"`
	ClientName    string                `json:"client_name,omitempty"`
	DateIssued    string                `json:"date_issued"`
	ValidUntil    *string               `json:"valid_until"`
	Status        string                `json:"status"`
	Notes         string                `json:"notes"`
	TaxRate       decimal.Decimal       `json:"tax_rate"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	TaxAmount     decimal.Decimal       `json:"tax_amount"`
	Total         decimal.Decimal       `json:"total"`
	ItemCount     int                   `json:"item_count"`
	Items         []InvoiceItemResponse `json:"items,omitempty"`
	Version       int                   `json:"version"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// InvoiceDefaultsResponse holds the values a new invoice form starts with
type InvoiceDefaultsResponse struct {
	DateIssued string   `json:"date_issued"`
	ValidUntil string   `json:"valid_until"`
	TaxRate    string   `json:"tax_rate"`
	Status     string   `json:"status"`
	Statuses   []string `json:"statuses"`
}

// ToInvoiceResponse converts a domain ProformaInvoice to InvoiceResponse
func ToInvoiceResponse(inv *trade.ProformaInvoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		ClientID:      inv.ClientID,
		DateIssued:    inv.DateIssued.String(),
		Status:        inv.Status.String(),
		Notes:         inv.Notes,
		TaxRate:       inv.TaxRate,
		Subtotal:      inv.Subtotal,
		TaxAmount:     inv.TaxAmount,
		Total:         inv.Total,
		ItemCount:     inv.ItemCount(),
		Version:       inv.Version,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	if inv.ValidUntil != nil {
		s := inv.ValidUntil.String()
		resp.ValidUntil = &s
	}
	if len(inv.Items) > 0 {
		resp.Items = make([]InvoiceItemResponse, len(inv.Items))
		for i, item := range inv.Items {
			resp.Items[i] = InvoiceItemResponse{
				ID:          item.ID,
				ProductID:   item.ProductID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Total:       item.Total,
				Position:    item.Position,
			}
		}
	}
	return resp
}

// ToInvoiceResponses converts a slice of domain invoices
func ToInvoiceResponses(invoices []trade.ProformaInvoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses
}
