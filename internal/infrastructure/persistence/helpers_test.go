package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gcs/crm/internal/domain/partner"
	"github.com/gcs/crm/internal/domain/shared/valueobject"
	"github.com/gcs/crm/internal/domain/trade"
	"github.com/gcs/crm/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestDatabase opens a private in-memory sqlite database with the schema applied
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newMockGormDB returns a postgres-dialect GORM DB backed by sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

func mustClient(t *testing.T, name, email string) *partner.Client {
	t.Helper()
	client, err := partner.NewClient(partner.ClientDetails{
		CompanyName: name,
		Email:       email,
		Address:     valueobject.NewAddress("1 Main St", "Nairobi", "Kenya"),
	})
	require.NoError(t, err)
	return client
}

func mustInvoice(t *testing.T, clientID uuid.UUID, issued string, items ...trade.LineItemDraft) *trade.ProformaInvoice {
	t.Helper()
	date, err := valueobject.ParseDate(issued)
	require.NoError(t, err)
	invoice, err := trade.NewProformaInvoice(trade.InvoiceHeader{
		ClientID:   clientID,
		DateIssued: date,
		Status:     trade.InvoiceStatusDraft,
		TaxRate:    trade.DefaultTaxRate,
	}, items)
	require.NoError(t, err)
	return invoice
}

func lineItem(desc string, qty, price int64) trade.LineItemDraft {
	return trade.LineItemDraft{
		Description: desc,
		Quantity:    decimal.NewFromInt(qty),
		UnitPrice:   decimal.NewFromInt(price),
	}
}
