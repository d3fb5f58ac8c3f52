// Package report builds the summary views shown on the dashboard.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/gcs/crm/internal/domain/catalog"
	"github.com/gcs/crm/internal/domain/partner"
	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/trade"
	"github.com/gcs/crm/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DashboardCacheKey is the cache key of the dashboard summary
	DashboardCacheKey = "dashboard:summary"

	// DefaultDashboardTTL is how long a cached summary is served
	DefaultDashboardTTL = 30 * time.Second

	// RecentInvoiceLimit is the number of invoices listed on the dashboard
	RecentInvoiceLimit = 5
)

// DashboardInvalidatingEvents lists the events that make a cached summary stale
var DashboardInvalidatingEvents = []string{
	partner.EventTypeClientCreated,
	partner.EventTypeClientDeleted,
	partner.EventTypeClientUpdated,
	catalog.EventTypeProductCreated,
	catalog.EventTypeProductDeleted,
	trade.EventTypeProformaInvoiceCreated,
	trade.EventTypeProformaInvoiceUpdated,
	trade.EventTypeProformaInvoiceDeleted,
}

// RecentInvoice is an invoice row on the dashboard
type RecentInvoice struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	ClientName    string          `json:"client_name"`
	DateIssued    string          `json:"date_issued"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
}

// DashboardSummary holds the dashboard figures
type DashboardSummary struct {
	TotalClients    int64           `json:"total_clients"`
	TotalProducts   int64           `json:"total_products"`
	TotalInvoices   int64           `json:"total_invoices"`
	PendingInvoices int64           `json:"pending_invoices"`
	RecentInvoices  []RecentInvoice `json:"recent_invoices"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// DashboardService computes the dashboard summary
type DashboardService struct {
	clientRepo  partner.ClientRepository
	productRepo catalog.ProductRepository
	invoiceRepo trade.ProformaInvoiceRepository
	cache       cache.Cache
	ttl         time.Duration
	logger      *zap.Logger
}

// NewDashboardService creates a new DashboardService. A nil cache disables caching.
func NewDashboardService(
	clientRepo partner.ClientRepository,
	productRepo catalog.ProductRepository,
	invoiceRepo trade.ProformaInvoiceRepository,
	summaryCache cache.Cache,
	ttl time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultDashboardTTL
	}
	return &DashboardService{
		clientRepo:  clientRepo,
		productRepo: productRepo,
		invoiceRepo: invoiceRepo,
		cache:       summaryCache,
		ttl:         ttl,
		logger:      logger,
	}
}

// Summary returns the dashboard summary, served from the cache while fresh.
// Cache failures are logged and the summary is computed from the store.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	if s.cache != nil {
		var cached DashboardSummary
		hit, err := s.cache.Get(ctx, DashboardCacheKey, &cached)
		if err != nil {
			s.logger.Warn("Dashboard cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	summary, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, DashboardCacheKey, summary, s.ttl); err != nil {
			s.logger.Warn("Dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// InvoiceCountsByStatus reports the number of invoices in every status
func (s *DashboardService) InvoiceCountsByStatus(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, status := range trade.AllInvoiceStatuses() {
		n, err := s.invoiceRepo.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		counts[status.String()] = n
	}
	return counts, nil
}

func (s *DashboardService) compute(ctx context.Context) (*DashboardSummary, error) {
	all := shared.Filter{}

	clients, err := s.clientRepo.Count(ctx, all)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.Count(ctx, all)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.Count(ctx, all)
	if err != nil {
		return nil, err
	}
	pending, err := s.invoiceRepo.CountByStatus(ctx, trade.InvoiceStatusDraft)
	if err != nil {
		return nil, err
	}
	recent, err := s.invoiceRepo.FindRecent(ctx, RecentInvoiceLimit)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		TotalClients:    clients,
		TotalProducts:   products,
		TotalInvoices:   invoices,
		PendingInvoices: pending,
		RecentInvoices:  make([]RecentInvoice, 0, len(recent)),
		GeneratedAt:     time.Now().UTC(),
	}

	names := make(map[uuid.UUID]string)
	for _, inv := range recent {
		name, ok := names[inv.ClientID]
		if !ok {
			client, err := s.clientRepo.FindByID(ctx, inv.ClientID)
			switch {
			case err == nil:
				name = client.CompanyName
			case !errors.Is(err, shared.ErrNotFound):
				return nil, err
			}
			names[inv.ClientID] = name
		}
		summary.RecentInvoices = append(summary.RecentInvoices, RecentInvoice{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientID:      inv.ClientID,
			ClientName:    name,
			DateIssued:    inv.DateIssued.String(),
			Status:        inv.Status.String(),
			Total:         inv.Total,
		})
	}
	return summary, nil
}
