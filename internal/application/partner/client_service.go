package partner

import (
	"context"
	"errors"

	appevent "github.com/gcs/crm/internal/application/event"
	"github.com/gcs/crm/internal/domain/partner"
	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientService handles client-related business operations
type ClientService struct {
	clientRepo  partner.ClientRepository
	contactRepo partner.ContactRepository
	invoiceRepo trade.ProformaInvoiceRepository
	events      *appevent.Dispatcher
	logger      *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(
	clientRepo partner.ClientRepository,
	contactRepo partner.ContactRepository,
	invoiceRepo trade.ProformaInvoiceRepository,
	logger *zap.Logger,
) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{
		clientRepo:  clientRepo,
		contactRepo: contactRepo,
		invoiceRepo: invoiceRepo,
		events:      appevent.NewDispatcher(nil, logger),
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher receiving client events
func (s *ClientService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = appevent.NewDispatcher(publisher, s.logger)
}

// Create creates a new client
func (s *ClientService) Create(ctx context.Context, req ClientRequest) (*ClientResponse, error) {
	client, err := partner.NewClient(req.details())
	if err != nil {
		return nil, err
	}

	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, client)

	s.logger.Info("Client created",
		zap.String("client_id", client.ID.String()),
		zap.String("company_name", client.CompanyName))

	response := ToClientResponse(client)
	return &response, nil
}

// GetByID retrieves a client with its contacts and invoices
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*ClientDetailResponse, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}

	contacts, err := s.contactRepo.FindByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.FindByClient(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ClientDetailResponse{
		ClientResponse: ToClientResponse(client),
		Contacts:       ToContactResponses(contacts),
		Invoices:       toClientInvoiceResponses(invoices),
	}, nil
}

// List retrieves clients ordered by company name
func (s *ClientService) List(ctx context.Context, filter ClientListFilter) ([]ClientResponse, int64, error) {
	domainFilter := shared.NewFilter(filter.Page, filter.PageSize, filter.Search, filter.OrderBy, filter.OrderDir)

	clients, err := s.clientRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.clientRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToClientResponses(clients), total, nil
}

// Update replaces a client's fields
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := client.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, client)

	response := ToClientResponse(client)
	return &response, nil
}

// Delete removes a client and its contacts.
// Clients still referenced by invoices are kept and ErrClientHasInvoices is returned.
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return err
	}

	hasInvoices, err := s.clientRepo.HasInvoices(ctx, id)
	if err != nil {
		return err
	}
	if hasInvoices {
		return partner.ErrClientHasInvoices
	}

	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return err
	}
	client.MarkDeleted()
	s.events.Dispatch(ctx, client)

	s.logger.Info("Client deleted", zap.String("client_id", id.String()))
	return nil
}

func (s *ClientService) findClient(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Client not found")
		}
		return nil, err
	}
	return client, nil
}
