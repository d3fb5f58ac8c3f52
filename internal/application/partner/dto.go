package partner

import (
	"time"

	"github.com/gcs/crm/internal/domain/partner"
	"github.com/gcs/crm/internal/domain/shared/valueobject"
	"github.com/gcs/crm/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Client DTOs
// =============================================================================

// ClientRequest represents a request to create or update a client
type ClientRequest struct {
	CompanyName string `json:"company_name" form:"company_name" binding:"required,min=1,max=200"`
	Email       string `json:"email" form:"email" binding:"omitempty,email,max=120"`
	Phone       string `json:"phone" form:"phone" binding:"max=50"`
	Address     string `json:"address" form:"address" binding:"max=300"`
	City        string `json:"city" form:"city" binding:"max=100"`
	Country     string `json:"country" form:"country" binding:"max=100"`
}

func (r ClientRequest) details() partner.ClientDetails {
	return partner.ClientDetails{
		CompanyName: r.CompanyName,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     valueobject.NewAddress(r.Address, r.City, r.Country),
	}
}

// ClientListFilter represents filter options for listing clients
type ClientListFilter struct {
	Search   string `form:"search"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"company_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	FullAddress string    `json:"full_address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClientInvoiceResponse is an invoice row shown on the client detail page
type ClientInvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	DateIssued    string          `json:"date_issued"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
}

// ClientDetailResponse is a client with its contacts and invoices
type ClientDetailResponse struct {
	ClientResponse
	Contacts []ContactResponse       `json:"contacts"`
	Invoices []ClientInvoiceResponse `json:"invoices"`
}

// ToClientResponse converts a domain Client to ClientResponse
func ToClientResponse(c *partner.Client) ClientResponse {
	return ClientResponse{
		ID:          c.ID,
		CompanyName: c.CompanyName,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address.Street(),
		City:        c.Address.City(),
		Country:     c.Address.Country(),
		FullAddress: c.Address.String(),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ToClientResponses converts a slice of domain Clients
func ToClientResponses(clients []partner.Client) []ClientResponse {
	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = ToClientResponse(&clients[i])
	}
	return responses
}

func toClientInvoiceResponses(invoices []trade.ProformaInvoice) []ClientInvoiceResponse {
	responses := make([]ClientInvoiceResponse, len(invoices))
	for i, inv := range invoices {
		responses[i] = ClientInvoiceResponse{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			DateIssued:    inv.DateIssued.String(),
			Status:        inv.Status.String(),
			Total:         inv.Total,
		}
	}
	return responses
}

// =============================================================================
// Contact DTOs
// =============================================================================

// ContactRequest represents a request to create or update a contact
type ContactRequest struct {
	ClientID string `json:"client_id" form:"client_id" binding:"required,uuid"`
	Name     string `json:"name" form:"name" binding:"required,min=1,max=200"`
	Email    string `json:"email" form:"email" binding:"omitempty,email,max=120"`
	Phone    string `json:"phone" form:"phone" binding:"max=50"`
	Position string `json:"position" form:"position" binding:"max=100"`
}

// ContactListFilter represents filter options for listing contacts
type ContactListFilter struct {
	Search   string `form:"search"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ContactResponse represents a contact in API responses
type ContactResponse struct {
	ID         uuid.UUID `json:"id"`
	ClientID   uuid.UUID `json:"client_id"`
	ClientName string    `json:"client_name,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Position   string    `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ToContactResponse converts a domain Contact to ContactResponse
func ToContactResponse(c *partner.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID,
		ClientID:  c.ClientID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Position:  c.Position,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToContactResponses converts a slice of domain Contacts
func ToContactResponses(contacts []partner.Contact) []ContactResponse {
	responses := make([]ContactResponse, len(contacts))
	for i := range contacts {
		responses[i] = ToContactResponse(&contacts[i])
	}
	return responses
}
