package router

import (
	"github.com/gcs/crm/internal/interfaces/http/handler"
)

// Handlers bundles the handlers mounted under the API group
type Handlers struct {
	Dashboard        *handler.DashboardHandler
	Clients          *handler.ClientHandler
	Contacts         *handler.ContactHandler
	Products         *handler.ProductHandler
	ProformaInvoices *handler.ProformaInvoiceHandler
}

// CRMGroups returns the route groups of the CRM API
func CRMGroups(h Handlers) []*DomainGroup {
	dashboard := NewDomainGroup("dashboard", "/dashboard")
	dashboard.GET("", h.Dashboard.Summary)
	dashboard.GET("/invoice-statuses", h.Dashboard.InvoiceStatuses)

	clients := NewDomainGroup("clients", "/clients")
	clients.GET("", h.Clients.List).
		POST("", h.Clients.Create).
		GET("/:id", h.Clients.GetByID).
		PUT("/:id", h.Clients.Update).
		DELETE("/:id", h.Clients.Delete)

	contacts := NewDomainGroup("contacts", "/contacts")
	contacts.GET("", h.Contacts.List).
		POST("", h.Contacts.Create).
		GET("/:id", h.Contacts.GetByID).
		PUT("/:id", h.Contacts.Update).
		DELETE("/:id", h.Contacts.Delete)

	products := NewDomainGroup("products", "/products")
	products.GET("", h.Products.List).
		POST("", h.Products.Create).
		GET("/:id", h.Products.GetByID).
		PUT("/:id", h.Products.Update).
		DELETE("/:id", h.Products.Delete)

	invoices := NewDomainGroup("proforma-invoices", "/proforma-invoices")
	invoices.GET("", h.ProformaInvoices.List).
		POST("", h.ProformaInvoices.Create).
		GET("/defaults", h.ProformaInvoices.Defaults).
		GET("/:id", h.ProformaInvoices.GetByID).
		PUT("/:id", h.ProformaInvoices.Update).
		DELETE("/:id", h.ProformaInvoices.Delete).
		GET("/:id/preview", h.ProformaInvoices.Preview).
		GET("/:id/pdf", h.ProformaInvoices.PDF)

	return []*DomainGroup{dashboard, clients, contacts, products, invoices}
}

// RegisterCRM registers every CRM route group on r
func RegisterCRM(r *Router, h Handlers) *Router {
	for _, g := range CRMGroups(h) {
		r.Register(g)
	}
	return r
}
