// Package trade holds the proforma invoice use cases.
package trade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appevent "github.com/gcs/crm/internal/application/event"
	"github.com/gcs/crm/internal/domain/catalog"
	"github.com/gcs/crm/internal/domain/partner"
	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/shared/valueobject"
	"github.com/gcs/crm/internal/domain/trade"
	"github.com/gcs/crm/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const spanService = "proforma_invoice"

// InvoiceSettings holds the numbering and default values for new invoices
type InvoiceSettings struct {
	NumberPrefix   string
	DefaultTaxRate decimal.Decimal
	ValidityDays   int
}

// DefaultInvoiceSettings returns the built-in settings
func DefaultInvoiceSettings() InvoiceSettings {
	return InvoiceSettings{
		NumberPrefix:   trade.DefaultInvoiceNumberPrefix,
		DefaultTaxRate: trade.DefaultTaxRate,
		ValidityDays:   trade.DefaultValidityDays,
	}
}

// ConflictRecorder counts invoice creations rejected by a duplicate number
type ConflictRecorder interface {
	RecordNumberConflict(ctx context.Context)
}

// ProformaInvoiceService handles proforma invoice operations
type ProformaInvoiceService struct {
	invoiceRepo trade.ProformaInvoiceRepository
	clientRepo  partner.ClientRepository
	productRepo catalog.ProductRepository
	settings    InvoiceSettings
	events      *appevent.Dispatcher
	conflicts   ConflictRecorder
	now         func() time.Time
	logger      *zap.Logger
}

// NewProformaInvoiceService creates a new ProformaInvoiceService
func NewProformaInvoiceService(
	invoiceRepo trade.ProformaInvoiceRepository,
	clientRepo partner.ClientRepository,
	productRepo catalog.ProductRepository,
	settings InvoiceSettings,
	logger *zap.Logger,
) *ProformaInvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultInvoiceSettings()
	if settings.NumberPrefix == "" {
		settings.NumberPrefix = defaults.NumberPrefix
	}
	if settings.ValidityDays <= 0 {
		settings.ValidityDays = defaults.ValidityDays
	}
	if settings.DefaultTaxRate.IsNegative() {
		settings.DefaultTaxRate = defaults.DefaultTaxRate
	}
	return &ProformaInvoiceService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		productRepo: productRepo,
		settings:    settings,
		events:      appevent.NewDispatcher(nil, logger),
		now:         time.Now,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher receiving invoice events
func (s *ProformaInvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = appevent.NewDispatcher(publisher, s.logger)
}

// SetConflictRecorder sets the recorder notified of number conflicts
func (s *ProformaInvoiceService) SetConflictRecorder(recorder ConflictRecorder) {
	s.conflicts = recorder
}

// Defaults returns the values a new invoice form starts with
func (s *ProformaInvoiceService) Defaults() InvoiceDefaultsResponse {
	today := s.today()
	statuses := trade.AllInvoiceStatuses()
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = st.String()
	}
	return InvoiceDefaultsResponse{
		DateIssued: today.String(),
		ValidUntil: today.AddDays(s.settings.ValidityDays).String(),
		TaxRate:    s.settings.DefaultTaxRate.String(),
		Status:     trade.InvoiceStatusDraft.String(),
		Statuses:   names,
	}
}

// Create numbers and stores a new invoice.
// The number comes from the sequence of the current year; a duplicate
// number is returned as trade.ErrInvoiceNumberConflict.
func (s *ProformaInvoiceService) Create(ctx context.Context, req InvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "create")
	defer span.End()

	header, err := s.header(ctx, req, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	drafts, err := s.lineItems(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	invoice, err := trade.NewProformaInvoice(header, drafts)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	scope := trade.NewNumberScope(s.settings.NumberPrefix, s.now().UTC().Year())
	if err := s.invoiceRepo.Create(ctx, invoice, scope); err != nil {
		if errors.Is(err, trade.ErrInvoiceNumberConflict) {
			s.recordConflict(ctx)
			s.logger.Warn("Invoice number conflict", zap.String("scope", scope.Pattern()), zap.Error(err))
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.events.Dispatch(ctx, invoice)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoice.ID.String(),
		telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber,
		telemetry.SpanAttrItemCount, invoice.ItemCount(),
	)
	telemetry.SetOK(span)

	s.logger.Info("Proforma invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("client_id", invoice.ClientID.String()),
		zap.String("total", invoice.Total.StringFixed(2)))

	return s.response(ctx, invoice)
}

// GetByID retrieves an invoice with its items ordered by position
func (s *ProformaInvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.response(ctx, invoice)
}

// List retrieves invoices newest first
func (s *ProformaInvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := shared.NewFilter(filter.Page, filter.PageSize, filter.Search, filter.OrderBy, filter.OrderDir)
	if filter.Status != "" {
		status, err := trade.ParseInvoiceStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Filters[trade.FilterStatus] = status.String()
	}
	if filter.ClientID != "" {
		clientID, err := uuid.Parse(filter.ClientID)
		if err != nil {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Invalid client id")
		}
		domainFilter.Filters[trade.FilterClientID] = clientID
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoiceRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := ToInvoiceResponses(invoices)
	if err := s.fillClientNames(ctx, responses); err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// Update applies a new header and replaces every item of the invoice.
// The number never changes. Blank fields fall back as on creation, except
// that a blank date issued or status keeps the stored value.
func (s *ProformaInvoiceService) Update(ctx context.Context, id uuid.UUID, req InvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "update",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, id.String()))
	defer span.End()

	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	header, err := s.header(ctx, req, invoice)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	drafts, err := s.lineItems(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := invoice.Edit(header, drafts); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.events.Dispatch(ctx, invoice)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber,
		telemetry.SpanAttrInvoiceStatus, invoice.Status.String(),
		telemetry.SpanAttrItemCount, invoice.ItemCount(),
	)
	telemetry.SetOK(span)

	s.logger.Info("Proforma invoice updated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int("item_count", invoice.ItemCount()))

	return s.response(ctx, invoice)
}

// Delete removes an invoice and its items
func (s *ProformaInvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "delete",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, id.String()))
	defer span.End()

	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	invoice.MarkDeleted()
	s.events.Dispatch(ctx, invoice)
	telemetry.SetOK(span)

	s.logger.Info("Proforma invoice deleted",
		zap.String("invoice_id", id.String()),
		zap.String("invoice_number", invoice.InvoiceNumber))
	return nil
}

// header maps the request onto an invoice header. current is the stored
// invoice when editing and nil when creating.
func (s *ProformaInvoiceService) header(ctx context.Context, req InvoiceRequest, current *trade.ProformaInvoice) (trade.InvoiceHeader, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return trade.InvoiceHeader{}, shared.NewDomainError("INVALID_CLIENT", "Invalid client id")
	}
	exists, err := s.clientRepo.Exists(ctx, clientID)
	if err != nil {
		return trade.InvoiceHeader{}, err
	}
	if !exists {
		return trade.InvoiceHeader{}, shared.NewDomainError("INVALID_CLIENT", "Client not found")
	}

	header := trade.InvoiceHeader{
		ClientID: clientID,
		Notes:    req.Notes,
	}

	if strings.TrimSpace(req.DateIssued) == "" {
		return trade.InvoiceHeader{}, shared.NewDomainError("INVALID_DATE", "Date issued is required")
	}
	if header.DateIssued, err = valueobject.ParseDate(req.DateIssued); err != nil {
		return trade.InvoiceHeader{}, shared.NewDomainError("INVALID_DATE", err.Error())
	}

	if header.ValidUntil, err = valueobject.ParseOptionalDate(req.ValidUntil); err != nil {
		return trade.InvoiceHeader{}, shared.NewDomainError("INVALID_DATE", err.Error())
	}

	if req.Status == "" && current != nil {
		header.Status = current.Status
	} else if header.Status, err = trade.ParseInvoiceStatus(req.Status); err != nil {
		return trade.InvoiceHeader{}, err
	}

	header.TaxRate, err = valueobject.ParseDecimalOr(req.TaxRate, s.settings.DefaultTaxRate)
	if err != nil {
		return trade.InvoiceHeader{}, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be a number")
	}
	return header, nil
}

// lineItems builds the drafts and checks that referenced products exist
func (s *ProformaInvoiceService) lineItems(ctx context.Context, req InvoiceRequest) ([]trade.LineItemDraft, error) {
	drafts, err := trade.BuildLineItems(req.lineItemInputs())
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, d := range drafts {
		if d.ProductID != nil && !seen[*d.ProductID] {
			seen[*d.ProductID] = true
			ids = append(ids, *d.ProductID)
		}
	}
	if len(ids) == 0 {
		return drafts, nil
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		found[p.ID] = true
	}
	for i, d := range drafts {
		if d.ProductID != nil && !found[*d.ProductID] {
			return nil, shared.NewDomainError(trade.ErrInvalidLineItem.Code,
				fmt.Sprintf("Line item %d: product %s not found", i+1, d.ProductID))
		}
	}
	return drafts, nil
}

func (s *ProformaInvoiceService) findInvoice(ctx context.Context, id uuid.UUID) (*trade.ProformaInvoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Proforma invoice not found")
		}
		return nil, err
	}
	return invoice, nil
}

func (s *ProformaInvoiceService) response(ctx context.Context, invoice *trade.ProformaInvoice) (*InvoiceResponse, error) {
	resp := ToInvoiceResponse(invoice)
	responses := []InvoiceResponse{resp}
	if err := s.fillClientNames(ctx, responses); err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// fillClientNames looks up each distinct client once
func (s *ProformaInvoiceService) fillClientNames(ctx context.Context, responses []InvoiceResponse) error {
	names := make(map[uuid.UUID]string)
	for i := range responses {
		id := responses[i].ClientID
		name, ok := names[id]
		if !ok {
			client, err := s.clientRepo.FindByID(ctx, id)
			switch {
			case err == nil:
				name = client.CompanyName
			case !errors.Is(err, shared.ErrNotFound):
				return err
			}
			names[id] = name
		}
		responses[i].ClientName = name
	}
	return nil
}

func (s *ProformaInvoiceService) recordConflict(ctx context.Context) {
	if s.conflicts != nil {
		s.conflicts.RecordNumberConflict(ctx)
	}
}

func (s *ProformaInvoiceService) today() valueobject.Date {
	return valueobject.NewDate(s.now().UTC())
}
