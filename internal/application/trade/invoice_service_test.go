package trade

import (
	"context"
	"testing"
	"time"

	"github.com/gcs/crm/internal/domain/catalog"
	"github.com/gcs/crm/internal/domain/partner"
	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/shared/valueobject"
	"github.com/gcs/crm/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

type invoiceFixture struct {
	svc       *ProformaInvoiceService
	invoices  *MockInvoiceRepository
	clients   *MockClientRepository
	products  *MockProductRepository
	conflicts *mockConflictRecorder
	published *recordingPublisher
	client    *partner.Client
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	client, err := partner.NewClient(partner.ClientDetails{CompanyName: "Acme Industries"})
	require.NoError(t, err)

	f := &invoiceFixture{
		invoices:  new(MockInvoiceRepository),
		clients:   new(MockClientRepository),
		products:  new(MockProductRepository),
		conflicts: new(mockConflictRecorder),
		published: &recordingPublisher{},
		client:    client,
	}
	f.svc = NewProformaInvoiceService(f.invoices, f.clients, f.products, DefaultInvoiceSettings(), zap.NewNop())
	f.svc.now = func() time.Time { return fixedNow }
	f.svc.SetEventPublisher(f.published)
	f.svc.SetConflictRecorder(f.conflicts)

	f.clients.On("Exists", mock.Anything, client.ID).Return(true, nil).Maybe()
	f.clients.On("FindByID", mock.Anything, client.ID).Return(client, nil).Maybe()
	return f
}

func (f *invoiceFixture) expectCreate(number string) {
	scope := trade.NewNumberScope(trade.DefaultInvoiceNumberPrefix, 2025)
	f.invoices.On("Create", mock.Anything, mock.AnythingOfType("*trade.ProformaInvoice"), scope).
		Run(func(args mock.Arguments) {
			_ = args.Get(1).(*trade.ProformaInvoice).AssignNumber(number)
		}).
		Return(nil)
}

func (f *invoiceFixture) storedInvoice(t *testing.T) *trade.ProformaInvoice {
	t.Helper()
	validUntil := valueobject.NewDate(fixedNow).AddDays(30)
	invoice, err := trade.NewProformaInvoice(trade.InvoiceHeader{
		ClientID:   f.client.ID,
		DateIssued: valueobject.NewDate(fixedNow),
		ValidUntil: &validUntil,
		Status:     trade.InvoiceStatusSent,
		TaxRate:    decimal.NewFromInt(10),
	}, []trade.LineItemDraft{
		{Description: "Old item", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)
	require.NoError(t, invoice.AssignNumber("GCS-PI-2025-0007"))
	invoice.ClearDomainEvents()
	return invoice
}

func TestProformaInvoiceService_Defaults(t *testing.T) {
	f := newInvoiceFixture(t)

	d := f.svc.Defaults()

	assert.Equal(t, "2025-03-14", d.DateIssued)
	assert.Equal(t, "2025-04-13", d.ValidUntil)
	assert.Equal(t, "16", d.TaxRate)
	assert.Equal(t, "Draft", d.Status)
	assert.Equal(t, []string{"Draft", "Sent", "Accepted", "Rejected", "Expired"}, d.Statuses)
}

func TestProformaInvoiceService_UsesUTCCalendar(t *testing.T) {
	f := newInvoiceFixture(t)
	// 2025-12-31 19:30 in UTC-5 is already 2026-01-01 in UTC.
	f.svc.now = func() time.Time {
		return time.Date(2025, 12, 31, 19, 30, 0, 0, time.FixedZone("EST", -5*3600))
	}

	assert.Equal(t, "2026-01-01", f.svc.Defaults().DateIssued)

	scope := trade.NewNumberScope(trade.DefaultInvoiceNumberPrefix, 2026)
	f.invoices.On("Create", mock.Anything, mock.Anything, scope).
		Run(func(args mock.Arguments) {
			_ = args.Get(1).(*trade.ProformaInvoice).AssignNumber("GCS-PI-2026-0001")
		}).
		Return(nil)

	resp, err := f.svc.Create(context.Background(), InvoiceRequest{
		ClientID:        f.client.ID.String(),
		DateIssued:      "2025-12-31",
		ItemDescription: []string{"Widget"},
	})

	require.NoError(t, err)
	assert.Equal(t, "GCS-PI-2026-0001", resp.InvoiceNumber)
	f.invoices.AssertExpectations(t)
}

func TestProformaInvoiceService_Create(t *testing.T) {
	f := newInvoiceFixture(t)
	f.expectCreate("GCS-PI-2025-0001")

	resp, err := f.svc.Create(context.Background(), InvoiceRequest{
		ClientID:        f.client.ID.String(),
		DateIssued:      "2025-03-14",
		ItemDescription: []string{"Widget", "", "Gadget"},
		ItemQuantity:    []string{"2", "5", ""},
		ItemUnitPrice:   []string{"100", "1", "50"},
	})

	require.NoError(t, err)
	assert.Equal(t, "GCS-PI-2025-0001", resp.InvoiceNumber)
	assert.Equal(t, "Acme Industries", resp.ClientName)
	assert.Equal(t, "2025-03-14", resp.DateIssued)
	assert.Nil(t, resp.ValidUntil)
	assert.Equal(t, "Draft", resp.Status)
	assert.Equal(t, "250.00", resp.Subtotal.StringFixed(2))
	assert.Equal(t, "40.00", resp.TaxAmount.StringFixed(2))
	assert.Equal(t, "290.00", resp.Total.StringFixed(2))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Gadget", resp.Items[1].Description)
	assert.True(t, decimal.NewFromInt(1).Equal(resp.Items[1].Quantity))
	assert.Equal(t, []string{trade.EventTypeProformaInvoiceCreated}, f.published.types)
	f.products.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
}

func TestProformaInvoiceService_Create_WithProducts(t *testing.T) {
	f := newInvoiceFixture(t)
	product, err := catalog.NewProduct(catalog.ProductDetails{Name: "Widget", UnitPrice: decimal.NewFromInt(100)})
	require.NoError(t, err)

	f.products.On("FindByIDs", mock.Anything, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
	f.expectCreate("GCS-PI-2025-0002")

	resp, err := f.svc.Create(context.Background(), InvoiceRequest{
		ClientID:        f.client.ID.String(),
		DateIssued:      "2025-01-02",
		ValidUntil:      "2025-02-01",
		Status:          "Sent",
		TaxRate:         "0",
		ItemDescription: []string{"Widget", "Widget again"},
		ItemUnitPrice:   []string{"100", "90"},
		ItemProductID:   []string{product.ID.String(), product.ID.String()},
	})

	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", resp.DateIssued)
	require.NotNil(t, resp.ValidUntil)
	assert.Equal(t, "2025-02-01", *resp.ValidUntil)
	assert.Equal(t, "Sent", resp.Status)
	assert.True(t, resp.TaxAmount.IsZero())
	assert.Equal(t, "190.00", resp.Total.StringFixed(2))
	require.NotNil(t, resp.Items[0].ProductID)
	assert.Equal(t, product.ID, *resp.Items[0].ProductID)
}

func TestProformaInvoiceService_Create_UnknownProduct(t *testing.T) {
	f := newInvoiceFixture(t)
	missing := uuid.New()
	f.products.On("FindByIDs", mock.Anything, []uuid.UUID{missing}).Return([]catalog.Product{}, nil)

	_, err := f.svc.Create(context.Background(), InvoiceRequest{
		ClientID:        f.client.ID.String(),
		DateIssued:      "2025-03-14",
		ItemDescription: []string{"Widget"},
		ItemProductID:   []string{missing.String()},
	})

	assert.ErrorIs(t, err, trade.ErrInvalidLineItem)
	assert.Contains(t, err.Error(), "Line item 1")
	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestProformaInvoiceService_Create_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  func(clientID string) InvoiceRequest
		code string
	}{
		{
			name: "non-numeric quantity",
			req: func(id string) InvoiceRequest {
				return InvoiceRequest{ClientID: id, DateIssued: "2025-03-14", ItemDescription: []string{"A", "B"}, ItemQuantity: []string{"1", "two"}}
			},
			code: "INVALID_LINE_ITEM",
		},
		{
			name: "non-numeric tax rate",
			req: func(id string) InvoiceRequest {
				return InvoiceRequest{ClientID: id, DateIssued: "2025-03-14", TaxRate: "sixteen"}
			},
			code: "INVALID_TAX_RATE",
		},
		{
			name: "bad date",
			req: func(id string) InvoiceRequest {
				return InvoiceRequest{ClientID: id, DateIssued: "14/03/2025"}
			},
			code: "INVALID_DATE",
		},
		{
			name: "missing date issued",
			req: func(id string) InvoiceRequest {
				return InvoiceRequest{ClientID: id, ItemDescription: []string{"Widget"}}
			},
			code: "INVALID_DATE",
		},
		{
			name: "unknown status",
			req: func(id string) InvoiceRequest {
				return InvoiceRequest{ClientID: id, DateIssued: "2025-03-14", Status: "Paid"}
			},
			code: "INVALID_STATUS",
		},
		{
			name: "negative tax rate",
			req: func(id string) InvoiceRequest {
				return InvoiceRequest{ClientID: id, DateIssued: "2025-03-14", TaxRate: "-1"}
			},
			code: "INVALID_TAX_RATE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInvoiceFixture(t)
			_, err := f.svc.Create(context.Background(), tt.req(f.client.ID.String()))

			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
			f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProformaInvoiceService_Create_UnknownClient(t *testing.T) {
	f := newInvoiceFixture(t)
	other := uuid.New()
	f.clients.On("Exists", mock.Anything, other).Return(false, nil)

	_, err := f.svc.Create(context.Background(), InvoiceRequest{ClientID: other.String()})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CLIENT", domainErr.Code)
}

func TestProformaInvoiceService_Create_NumberConflict(t *testing.T) {
	f := newInvoiceFixture(t)
	f.invoices.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(trade.ErrInvoiceNumberConflict)
	f.conflicts.On("RecordNumberConflict", mock.Anything).Once()

	_, err := f.svc.Create(context.Background(), InvoiceRequest{
		ClientID:        f.client.ID.String(),
		DateIssued:      "2025-03-14",
		ItemDescription: []string{"Widget"},
	})

	assert.ErrorIs(t, err, trade.ErrInvoiceNumberConflict)
	assert.Empty(t, f.published.types)
	f.conflicts.AssertExpectations(t)
}

func TestProformaInvoiceService_Create_UsesConfiguredPrefix(t *testing.T) {
	f := newInvoiceFixture(t)
	f.svc = NewProformaInvoiceService(f.invoices, f.clients, f.products, InvoiceSettings{
		NumberPrefix:   "ACME-Q",
		DefaultTaxRate: decimal.NewFromInt(5),
	}, nil)
	f.svc.now = func() time.Time { return fixedNow }

	scope := trade.NewNumberScope("ACME-Q", 2025)
	f.invoices.On("Create", mock.Anything, mock.Anything, scope).
		Run(func(args mock.Arguments) {
			_ = args.Get(1).(*trade.ProformaInvoice).AssignNumber("ACME-Q-2025-0001")
		}).
		Return(nil)

	resp, err := f.svc.Create(context.Background(), InvoiceRequest{
		ClientID:        f.client.ID.String(),
		DateIssued:      "2025-03-14",
		ItemDescription: []string{"Widget"},
		ItemUnitPrice:   []string{"100"},
	})

	require.NoError(t, err)
	assert.Equal(t, "ACME-Q-2025-0001", resp.InvoiceNumber)
	assert.Equal(t, "5.00", resp.TaxAmount.StringFixed(2))
}

func TestProformaInvoiceService_Update_ReplacesItems(t *testing.T) {
	f := newInvoiceFixture(t)
	invoice := f.storedInvoice(t)
	oldItemID := invoice.Items[0].ID

	f.invoices.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	f.invoices.On("Update", mock.Anything, invoice).Return(nil)

	resp, err := f.svc.Update(context.Background(), invoice.ID, InvoiceRequest{
		ClientID:        f.client.ID.String(),
		DateIssued:      "2025-03-20",
		ItemDescription: []string{"Widget", "Gadget"},
		ItemQuantity:    []string{"2", "1"},
		ItemUnitPrice:   []string{"100", "50"},
	})

	require.NoError(t, err)
	assert.Equal(t, "GCS-PI-2025-0007", resp.InvoiceNumber)
	assert.Equal(t, "Sent", resp.Status, "blank status keeps the stored status")
	assert.Nil(t, resp.ValidUntil, "blank valid until clears the date")
	assert.Equal(t, "16", resp.TaxRate.String(), "blank tax rate falls back to the default")
	assert.Equal(t, "290.00", resp.Total.StringFixed(2))
	require.Len(t, resp.Items, 2)
	for _, item := range resp.Items {
		assert.NotEqual(t, oldItemID, item.ID)
	}
	assert.Equal(t, 2, resp.Version)
	assert.Equal(t, []string{trade.EventTypeProformaInvoiceUpdated}, f.published.types)
}

func TestProformaInvoiceService_Update_NotFound(t *testing.T) {
	f := newInvoiceFixture(t)
	id := uuid.New()
	f.invoices.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := f.svc.Update(context.Background(), id, InvoiceRequest{ClientID: f.client.ID.String()})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProformaInvoiceService_Delete(t *testing.T) {
	f := newInvoiceFixture(t)
	invoice := f.storedInvoice(t)
	f.invoices.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	f.invoices.On("Delete", mock.Anything, invoice.ID).Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), invoice.ID))
	assert.Equal(t, []string{trade.EventTypeProformaInvoiceDeleted}, f.published.types)
}

func TestProformaInvoiceService_List(t *testing.T) {
	f := newInvoiceFixture(t)
	invoice := f.storedInvoice(t)

	match := mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Filters[trade.FilterStatus] == "Sent" && filter.Filters[trade.FilterClientID] == f.client.ID
	})
	f.invoices.On("FindAll", mock.Anything, match).Return([]trade.ProformaInvoice{*invoice}, nil)
	f.invoices.On("Count", mock.Anything, match).Return(int64(1), nil)

	items, total, err := f.svc.List(context.Background(), InvoiceListFilter{
		Status:   "Sent",
		ClientID: f.client.ID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Acme Industries", items[0].ClientName)
	f.clients.AssertNumberOfCalls(t, "FindByID", 1)
}
