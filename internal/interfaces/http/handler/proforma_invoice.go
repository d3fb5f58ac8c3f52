package handler

import (
	"net/http"

	printingapp "github.com/gcs/crm/internal/application/printing"
	tradeapp "github.com/gcs/crm/internal/application/trade"
	"github.com/gcs/crm/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ProformaInvoiceHandler handles proforma invoice endpoints, including
// the printable preview and PDF export
type ProformaInvoiceHandler struct {
	BaseHandler
	invoiceService  *tradeapp.ProformaInvoiceService
	documentService *printingapp.DocumentService
}

// NewProformaInvoiceHandler creates a new ProformaInvoiceHandler
func NewProformaInvoiceHandler(
	invoiceService *tradeapp.ProformaInvoiceService,
	documentService *printingapp.DocumentService,
) *ProformaInvoiceHandler {
	return &ProformaInvoiceHandler{
		invoiceService:  invoiceService,
		documentService: documentService,
	}
}

// List godoc
// @ID           listProformaInvoices
// @Summary      List proforma invoices
// @Description  List invoices newest first, optionally filtered by status or client
// @Tags         proforma-invoices
// @Produce      json
// @Param        search query string false "Search invoice number or notes"
// @Param        status query string false "Status" Enums(Draft, Sent, Accepted, Rejected, Expired)
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]tradeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /proforma-invoices [get]
func (h *ProformaInvoiceHandler) List(c *gin.Context) {
	var filter tradeapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// Defaults godoc
// @ID           getProformaInvoiceDefaults
// @Summary      New invoice form defaults
// @Description  Today, today plus the validity period, the default tax rate and Draft status
// @Tags         proforma-invoices
// @Produce      json
// @Success      200 {object} APIResponse[tradeapp.InvoiceDefaultsResponse]
// @Router       /proforma-invoices/defaults [get]
func (h *ProformaInvoiceHandler) Defaults(c *gin.Context) {
	h.Success(c, h.invoiceService.Defaults())
}

// Create godoc
// @ID           createProformaInvoice
// @Summary      Create a proforma invoice
// @Description  Allocates the next GCS-PI-<year>-<seq> number. Line items are sent as four
// @Description  parallel lists; rows with a blank description are skipped, a blank quantity
// @Description  means 1 and a blank unit price means 0.
// @Tags         proforma-invoices
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        Idempotency-Key header string false "Deduplicates retried requests"
// @Param        request body tradeapp.InvoiceRequest true "Proforma invoice"
// @Success      201 {object} APIResponse[tradeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /proforma-invoices [post]
func (h *ProformaInvoiceHandler) Create(c *gin.Context) {
	var req tradeapp.InvoiceRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// GetByID godoc
// @ID           getProformaInvoiceById
// @Summary      Get a proforma invoice
// @Tags         proforma-invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /proforma-invoices/{id} [get]
func (h *ProformaInvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Update godoc
// @ID           updateProformaInvoice
// @Summary      Edit a proforma invoice
// @Description  Replaces the header fields and the complete set of line items, then
// @Description  recalculates the totals. The invoice number never changes.
// @Tags         proforma-invoices
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body tradeapp.InvoiceRequest true "Proforma invoice"
// @Success      200 {object} APIResponse[tradeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /proforma-invoices/{id} [put]
func (h *ProformaInvoiceHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "invoice")
	if !ok {
		return
	}

	var req tradeapp.InvoiceRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Delete godoc
// @ID           deleteProformaInvoice
// @Summary      Delete a proforma invoice
// @Tags         proforma-invoices
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /proforma-invoices/{id} [delete]
func (h *ProformaInvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "invoice")
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Preview godoc
// @ID           previewProformaInvoice
// @Summary      Printable HTML view of a proforma invoice
// @Tags         proforma-invoices
// @Produce      html
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {string} string "HTML document"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /proforma-invoices/{id}/preview [get]
func (h *ProformaInvoiceHandler) Preview(c *gin.Context) {
	id, ok := h.parseID(c, "invoice")
	if !ok {
		return
	}

	doc, err := h.documentService.PreviewHTML(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

// PDF godoc
// @ID           exportProformaInvoicePdf
// @Summary      Export a proforma invoice as PDF
// @Description  When PDF rendering is unavailable the HTML view is returned instead
// @Description  with the X-PDF-Fallback: true header.
// @Tags         proforma-invoices
// @Produce      application/pdf,html
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {file} file "PDF document"
// @Header       200 {string} X-PDF-Fallback "true when the body is the HTML fallback"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /proforma-invoices/{id}/pdf [get]
func (h *ProformaInvoiceHandler) PDF(c *gin.Context) {
	id, ok := h.parseID(c, "invoice")
	if !ok {
		return
	}

	doc, err := h.documentService.RenderPDF(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if doc.Fallback {
		c.Header(middleware.PDFFallbackHeader, "true")
	} else {
		c.Header("Content-Disposition", "inline; filename="+doc.Filename)
	}
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
