package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/trade"
	"github.com/gcs/crm/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProformaInvoiceRepository implements ProformaInvoiceRepository using GORM
type GormProformaInvoiceRepository struct {
	db *gorm.DB
}

// NewGormProformaInvoiceRepository creates a new GormProformaInvoiceRepository
func NewGormProformaInvoiceRepository(db *gorm.DB) *GormProformaInvoiceRepository {
	return &GormProformaInvoiceRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByID finds an invoice by its ID, with items
func (r *GormProformaInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.ProformaInvoice, error) {
	var model models.ProformaInvoiceModel
	if err := preloadItems(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByNumber finds an invoice by its number, with items
func (r *GormProformaInvoiceRepository) FindByNumber(ctx context.Context, number string) (*trade.ProformaInvoice, error) {
	var model models.ProformaInvoiceModel
	if err := preloadItems(r.db.WithContext(ctx)).
		Where("invoice_number = ?", number).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all invoices matching the filter. List queries leave Items
// empty and fill the item count instead.
func (r *GormProformaInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.ProformaInvoice, error) {
	var invoiceModels []models.ProformaInvoiceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProformaInvoiceModel{}), filter).
		Select(models.ItemCountColumn)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(invoiceModels), nil
}

// FindByClient finds all invoices of a client
func (r *GormProformaInvoiceRepository) FindByClient(ctx context.Context, clientID uuid.UUID) ([]trade.ProformaInvoice, error) {
	var invoiceModels []models.ProformaInvoiceModel
	if err := r.db.WithContext(ctx).
		Select(models.ItemCountColumn).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(invoiceModels), nil
}

// FindRecent returns the latest invoices by creation time
func (r *GormProformaInvoiceRepository) FindRecent(ctx context.Context, limit int) ([]trade.ProformaInvoice, error) {
	if limit <= 0 {
		return []trade.ProformaInvoice{}, nil
	}
	var invoiceModels []models.ProformaInvoiceModel
	if err := r.db.WithContext(ctx).
		Select(models.ItemCountColumn).
		Order("created_at DESC").
		Limit(limit).
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(invoiceModels), nil
}

// Count counts invoices matching the filter
func (r *GormProformaInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ProformaInvoiceModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts invoices in a status
func (r *GormProformaInvoiceRepository) CountByStatus(ctx context.Context, status trade.InvoiceStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProformaInvoiceModel{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindLatestNumber returns the greatest invoice number starting with pattern
func (r *GormProformaInvoiceRepository) FindLatestNumber(ctx context.Context, pattern string) (string, error) {
	return latestNumber(r.db.WithContext(ctx), pattern)
}

func latestNumber(db *gorm.DB, pattern string) (string, error) {
	var numbers []string
	if err := db.Model(&models.ProformaInvoiceModel{}).
		Where("invoice_number LIKE ? ESCAPE '\\'", escapeLike(pattern)+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &numbers).Error; err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

// Create reserves the next number of scope and inserts the invoice with its items.
// The sequence row is locked for the rest of the transaction, so concurrent
// creators in the same scope are serialised. The unique index on
// invoice_number still rejects a number that was inserted around the sequence.
func (r *GormProformaInvoiceRepository) Create(ctx context.Context, invoice *trade.ProformaInvoice, scope trade.NumberScope) error {
	var number string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := reserveNumber(tx, scope)
		if err != nil {
			return err
		}
		number = next

		model := models.ProformaInvoiceModelFromDomain(invoice)
		model.InvoiceNumber = number
		if err := tx.Omit("Items").Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translateDuplicate(err)
	}
	return invoice.AssignNumber(number)
}

// reserveNumber advances the sequence of scope and returns the formatted number.
// A new sequence row is seeded from the greatest number already stored.
func reserveNumber(tx *gorm.DB, scope trade.NumberScope) (string, error) {
	latest, err := latestNumber(tx, scope.Pattern())
	if err != nil {
		return "", err
	}
	stored := 0
	if latest != "" {
		stored, err = trade.ParseInvoiceSequence(scope.Prefix, scope.Year, latest)
		if err != nil {
			return "", err
		}
	}

	now := time.Now()
	seed := models.InvoiceSequenceModel{
		Prefix:    scope.Prefix,
		Year:      scope.Year,
		LastValue: stored,
		UpdatedAt: now,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prefix"}, {Name: "year"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return "", err
	}

	var seq models.InvoiceSequenceModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ? AND year = ?", scope.Prefix, scope.Year).
		Take(&seq).Error; err != nil {
		return "", err
	}

	last := max(seq.LastValue, stored)
	number, err := scope.Format(last + 1)
	if err != nil {
		return "", err
	}

	if err := tx.Model(&models.InvoiceSequenceModel{}).
		Where("prefix = ? AND year = ?", scope.Prefix, scope.Year).
		Updates(map[string]any{"last_value": last + 1, "updated_at": now}).Error; err != nil {
		return "", err
	}
	return number, nil
}

// Update saves the header and replaces every stored item
func (r *GormProformaInvoiceRepository) Update(ctx context.Context, invoice *trade.ProformaInvoice) error {
	model := models.ProformaInvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProformaInvoiceModel{}).
			Where("id = ?", model.ID).
			Updates(map[string]any{
				"client_id":   model.ClientID,
				"date_issued": model.DateIssued,
				"valid_until": model.ValidUntil,
				"status":      model.Status,
				"notes":       model.Notes,
				"tax_rate":    model.TaxRate,
				"subtotal":    model.Subtotal,
				"tax_amount":  model.TaxAmount,
				"total":       model.Total,
				"version":     model.Version,
				"updated_at":  model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if err := tx.Delete(&models.InvoiceItemModel{}, "invoice_id = ?", model.ID).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes an invoice and its items
func (r *GormProformaInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.InvoiceItemModel{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ProformaInvoiceModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func translateDuplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return trade.ErrInvoiceNumberConflict
	}
	return err
}

func invoicesToDomain(invoiceModels []models.ProformaInvoiceModel) []trade.ProformaInvoice {
	invoices := make([]trade.ProformaInvoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices
}

func (r *GormProformaInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	query = applyPagination(query, filter)
	return applyOrdering(query, filter, ProformaInvoiceSortFields, "created_at DESC")
}

func (r *GormProformaInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applySearch(query, filter.Search, "invoice_number")

	for key, value := range filter.Filters {
		switch key {
		case trade.FilterStatus:
			query = query.Where("status = ?", value)
		case trade.FilterClientID:
			query = query.Where("client_id = ?", value)
		}
	}
	return query
}

// Ensure GormProformaInvoiceRepository implements ProformaInvoiceRepository
var _ trade.ProformaInvoiceRepository = (*GormProformaInvoiceRepository)(nil)
