// Package printing turns stored proforma invoices into printable documents.
package printing

import (
	"context"
	"errors"
	"time"

	"github.com/gcs/crm/internal/domain/partner"
	domainprinting "github.com/gcs/crm/internal/domain/printing"
	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/trade"
	infra "github.com/gcs/crm/internal/infrastructure/printing"
	"github.com/gcs/crm/internal/infrastructure/storage"
	"github.com/gcs/crm/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const spanService = "document"

// Content types of rendered documents
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// RenderRecorder observes document renders
type RenderRecorder interface {
	RecordRender(ctx context.Context, outcome string, d time.Duration)
}

// Document is a rendered invoice ready to be served
type Document struct {
	InvoiceNumber string
	Filename      string
	ContentType   string
	Data          []byte
	// Fallback is set when PDF rendering failed and Data holds the HTML view
	Fallback bool
}

// DocumentService renders proforma invoices to HTML and PDF
type DocumentService struct {
	invoiceRepo trade.ProformaInvoiceRepository
	clientRepo  partner.ClientRepository
	contactRepo partner.ContactRepository
	templates   *infra.TemplateEngine
	renderer    infra.PDFRenderer
	archive     storage.DocumentStorage
	page        domainprinting.PageSetup
	recorder    RenderRecorder
	logger      *zap.Logger
}

// DocumentServiceOption configures a DocumentService
type DocumentServiceOption func(*DocumentService)

// WithArchive stores every rendered PDF in s
func WithArchive(s storage.DocumentStorage) DocumentServiceOption {
	return func(d *DocumentService) {
		d.archive = s
	}
}

// WithPageSetup overrides the default A4 portrait page
func WithPageSetup(page domainprinting.PageSetup) DocumentServiceOption {
	return func(d *DocumentService) {
		d.page = page
	}
}

// WithRenderRecorder records render outcomes and durations
func WithRenderRecorder(r RenderRecorder) DocumentServiceOption {
	return func(d *DocumentService) {
		d.recorder = r
	}
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	invoiceRepo trade.ProformaInvoiceRepository,
	clientRepo partner.ClientRepository,
	contactRepo partner.ContactRepository,
	templates *infra.TemplateEngine,
	renderer infra.PDFRenderer,
	logger *zap.Logger,
	opts ...DocumentServiceOption,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = infra.DisabledRenderer{}
	}
	s := &DocumentService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		contactRepo: contactRepo,
		templates:   templates,
		renderer:    renderer,
		archive:     storage.NopStorage{},
		page:        domainprinting.DefaultPageSetup(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.archive == nil {
		s.archive = storage.NopStorage{}
	}
	return s
}

// PreviewHTML renders the printable HTML view of an invoice
func (s *DocumentService) PreviewHTML(ctx context.Context, id uuid.UUID) (*Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "preview",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, id.String()))
	defer span.End()

	invoice, html, err := s.renderHTML(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return &Document{
		InvoiceNumber: invoice.InvoiceNumber,
		Filename:      domainprinting.PDFFilename(invoice.InvoiceNumber),
		ContentType:   ContentTypeHTML,
		Data:          []byte(html),
	}, nil
}

// RenderPDF renders an invoice to PDF and archives it.
// When the renderer fails the HTML view is returned with Fallback set.
func (s *DocumentService) RenderPDF(ctx context.Context, id uuid.UUID) (*Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "render_pdf",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, id.String()))
	defer span.End()

	invoice, html, err := s.renderHTML(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber)

	doc := &Document{
		InvoiceNumber: invoice.InvoiceNumber,
		Filename:      domainprinting.PDFFilename(invoice.InvoiceNumber),
	}

	start := time.Now()
	result, err := s.renderer.Render(ctx, &infra.RenderRequest{
		HTML:  html,
		Page:  s.page,
		Title: invoice.InvoiceNumber,
	})
	if err != nil || result == nil || len(result.PDFData) == 0 {
		s.logger.Warn("PDF rendering failed, serving HTML instead",
			zap.String("invoice_id", id.String()),
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Error(err),
		)
		s.record(ctx, telemetry.RenderOutcomeFallback, time.Since(start))
		doc.ContentType = ContentTypeHTML
		doc.Data = []byte(html)
		doc.Fallback = true
		telemetry.SetOK(span)
		return doc, nil
	}
	s.record(ctx, telemetry.RenderOutcomePDF, time.Since(start))

	doc.ContentType = ContentTypePDF
	doc.Data = result.PDFData

	key := domainprinting.ArchiveKey(invoice.InvoiceNumber)
	telemetry.SetAttributes(span, telemetry.SpanAttrDocumentKey, key)
	if err := s.archive.Put(ctx, key, result.PDFData, ContentTypePDF); err != nil {
		s.logger.Warn("Failed to archive invoice PDF",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	telemetry.SetOK(span)
	return doc, nil
}

func (s *DocumentService) renderHTML(ctx context.Context, id uuid.UUID) (*trade.ProformaInvoice, string, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, "", shared.NewDomainError("NOT_FOUND", "Proforma invoice not found")
		}
		return nil, "", err
	}

	client, err := s.clientRepo.FindByID(ctx, invoice.ClientID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, "", err
	}

	var contact *partner.Contact
	contacts, err := s.contactRepo.FindByClient(ctx, invoice.ClientID)
	if err != nil {
		s.logger.Warn("Failed to load client contacts for invoice document",
			zap.String("client_id", invoice.ClientID.String()),
			zap.Error(err),
		)
	} else if len(contacts) > 0 {
		contact = &contacts[0]
	}

	html, err := s.templates.RenderInvoice(infra.NewInvoiceDocument(invoice, client, contact))
	if err != nil {
		return nil, "", err
	}
	return invoice, html, nil
}

func (s *DocumentService) record(ctx context.Context, outcome string, d time.Duration) {
	if s.recorder != nil {
		s.recorder.RecordRender(ctx, outcome, d)
	}
}

// ArchiveCleanupHandler removes archived PDFs that no longer match their invoice
type ArchiveCleanupHandler struct {
	archive storage.DocumentStorage
	logger  *zap.Logger
}

// NewArchiveCleanupHandler creates a handler deleting archives of edited or deleted invoices
func NewArchiveCleanupHandler(archive storage.DocumentStorage, logger *zap.Logger) *ArchiveCleanupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveCleanupHandler{archive: archive, logger: logger}
}

// Handle deletes the archived PDF of the invoice named by the event
func (h *ArchiveCleanupHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var number string
	switch e := event.(type) {
	case *trade.ProformaInvoiceUpdatedEvent:
		number = e.InvoiceNumber
	case *trade.ProformaInvoiceDeletedEvent:
		number = e.InvoiceNumber
	default:
		return nil
	}
	if number == "" || h.archive == nil {
		return nil
	}
	key := domainprinting.ArchiveKey(number)
	if err := h.archive.Delete(ctx, key); err != nil {
		h.logger.Warn("Failed to delete archived invoice PDF", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// EventTypes returns the invoice events that invalidate an archived PDF
func (h *ArchiveCleanupHandler) EventTypes() []string {
	return []string{trade.EventTypeProformaInvoiceUpdated, trade.EventTypeProformaInvoiceDeleted}
}
