package partner

import (
	"context"
	"errors"

	"github.com/gcs/crm/internal/domain/partner"
	"github.com/gcs/crm/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContactService handles contact-related business operations
type ContactService struct {
	contactRepo partner.ContactRepository
	clientRepo  partner.ClientRepository
	logger      *zap.Logger
}

// NewContactService creates a new ContactService
func NewContactService(contactRepo partner.ContactRepository, clientRepo partner.ClientRepository, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{
		contactRepo: contactRepo,
		clientRepo:  clientRepo,
		logger:      logger,
	}
}

// Create creates a contact for an existing client
func (s *ContactService) Create(ctx context.Context, req ContactRequest) (*ContactResponse, error) {
	details, err := s.details(ctx, req)
	if err != nil {
		return nil, err
	}

	contact, err := partner.NewContact(details)
	if err != nil {
		return nil, err
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}

	s.logger.Info("Contact created",
		zap.String("contact_id", contact.ID.String()),
		zap.String("client_id", contact.ClientID.String()))

	return s.withClientName(ctx, contact)
}

// GetByID retrieves a contact with its client's name
func (s *ContactService) GetByID(ctx context.Context, id uuid.UUID) (*ContactResponse, error) {
	contact, err := s.findContact(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withClientName(ctx, contact)
}

// List retrieves contacts ordered by name, optionally of one client
func (s *ContactService) List(ctx context.Context, filter ContactListFilter) ([]ContactResponse, int64, error) {
	domainFilter := shared.NewFilter(filter.Page, filter.PageSize, filter.Search, filter.OrderBy, filter.OrderDir)
	if filter.ClientID != "" {
		clientID, err := uuid.Parse(filter.ClientID)
		if err != nil {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Invalid client id")
		}
		domainFilter.Filters["client_id"] = clientID
	}

	contacts, err := s.contactRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.contactRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := ToContactResponses(contacts)
	names := make(map[uuid.UUID]string)
	for i := range responses {
		clientID := responses[i].ClientID
		name, ok := names[clientID]
		if !ok {
			if client, err := s.clientRepo.FindByID(ctx, clientID); err == nil {
				name = client.CompanyName
			} else if !errors.Is(err, shared.ErrNotFound) {
				return nil, 0, err
			}
			names[clientID] = name
		}
		responses[i].ClientName = name
	}
	return responses, total, nil
}

// Update replaces a contact's fields; the contact may move to another client
func (s *ContactService) Update(ctx context.Context, id uuid.UUID, req ContactRequest) (*ContactResponse, error) {
	contact, err := s.findContact(ctx, id)
	if err != nil {
		return nil, err
	}

	details, err := s.details(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := contact.Update(details); err != nil {
		return nil, err
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}
	return s.withClientName(ctx, contact)
}

// Delete removes a contact
func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findContact(ctx, id); err != nil {
		return err
	}
	return s.contactRepo.Delete(ctx, id)
}

// details validates the referenced client and maps the request
func (s *ContactService) details(ctx context.Context, req ContactRequest) (partner.ContactDetails, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return partner.ContactDetails{}, shared.NewDomainError("INVALID_CLIENT", "Invalid client id")
	}
	exists, err := s.clientRepo.Exists(ctx, clientID)
	if err != nil {
		return partner.ContactDetails{}, err
	}
	if !exists {
		return partner.ContactDetails{}, shared.NewDomainError("INVALID_CLIENT", "Client not found")
	}
	return partner.ContactDetails{
		ClientID: clientID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Position: req.Position,
	}, nil
}

func (s *ContactService) findContact(ctx context.Context, id uuid.UUID) (*partner.Contact, error) {
	contact, err := s.contactRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Contact not found")
		}
		return nil, err
	}
	return contact, nil
}

func (s *ContactService) withClientName(ctx context.Context, contact *partner.Contact) (*ContactResponse, error) {
	response := ToContactResponse(contact)
	client, err := s.clientRepo.FindByID(ctx, contact.ClientID)
	switch {
	case err == nil:
		response.ClientName = client.CompanyName
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	return &response, nil
}
