package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/trade"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewInvoiceMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Render outcomes recorded by RecordRender
const (
	RenderOutcomePDF      = "pdf"
	RenderOutcomeFallback = "html_fallback"
)

// InvoiceStatsProvider reports how many invoices are in each status
type InvoiceStatsProvider interface {
	InvoiceCountsByStatus(ctx context.Context) (map[string]int64, error)
}

// InvoiceMetrics records proforma invoice activity
type InvoiceMetrics struct {
	logger *zap.Logger

	domainEvents    *Counter
	invoicesCreated *Counter
	invoiceAmount   *Histogram
	numberConflicts *Counter
	renders         *Counter
	renderDuration  *Histogram
	invoicesCurrent *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// InvoiceMetricsConfig holds configuration for invoice metrics.
type InvoiceMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewInvoiceMetrics creates the invoice instruments on the meter.
func NewInvoiceMetrics(cfg InvoiceMetricsConfig) (*InvoiceMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	im := &InvoiceMetrics{
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	var err error
	if im.domainEvents, err = NewCounter(cfg.Meter, "gcs_domain_events_total",
		"Domain events published, by type", "{events}"); err != nil {
		return nil, err
	}
	if im.invoicesCreated, err = NewCounter(cfg.Meter, "gcs_invoice_created_total",
		"Proforma invoices created", "{invoices}"); err != nil {
		return nil, err
	}
	if im.invoiceAmount, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "gcs_invoice_total_amount",
		Description: "Total amount of created proforma invoices",
		Unit:        "{currency}",
		Boundaries:  InvoiceAmountBuckets,
	}); err != nil {
		return nil, err
	}
	if im.numberConflicts, err = NewCounter(cfg.Meter, "gcs_invoice_number_conflict_total",
		"Invoice creations rejected by the unique invoice number", "{conflicts}"); err != nil {
		return nil, err
	}
	if im.renders, err = NewCounter(cfg.Meter, "gcs_invoice_render_total",
		"Invoice documents rendered, by outcome", "{documents}"); err != nil {
		return nil, err
	}
	if im.renderDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "gcs_invoice_render_duration_seconds",
		Description: "Time to render an invoice document",
		Unit:        "s",
		Boundaries:  RenderDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if im.invoicesCurrent, err = NewGauge(cfg.Meter, "gcs_invoice_count",
		"Current number of proforma invoices, by status", "{invoices}"); err != nil {
		return nil, err
	}

	return im, nil
}

// RecordNumberConflict counts a creation rejected by a duplicate number
func (im *InvoiceMetrics) RecordNumberConflict(ctx context.Context) {
	im.numberConflicts.Inc(ctx)
}

// RecordRender counts a rendered document and its duration
func (im *InvoiceMetrics) RecordRender(ctx context.Context, outcome string, d time.Duration) {
	attr := AttrRenderOutcome.String(outcome)
	im.renders.Inc(ctx, attr)
	im.renderDuration.RecordDuration(ctx, d, attr)
}

// Handle records domain events. It implements shared.EventHandler.
func (im *InvoiceMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	im.domainEvents.Inc(ctx, AttrEventType.String(event.EventType()))

	if created, ok := event.(*trade.ProformaInvoiceCreatedEvent); ok {
		im.invoicesCreated.Inc(ctx)
		amount, _ := created.Total.Float64()
		im.invoiceAmount.Record(ctx, amount)
	}
	return nil
}

// EventTypes subscribes to every event
func (im *InvoiceMetrics) EventTypes() []string {
	return nil
}

// StartPeriodicCollection records invoice counts per status every interval
// until Stop is called or ctx is done. It is non-blocking.
func (im *InvoiceMetrics) StartPeriodicCollection(ctx context.Context, provider InvoiceStatsProvider, interval time.Duration) {
	im.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go im.runPeriodicCollection(ctx, provider, interval)
	})
}

func (im *InvoiceMetrics) runPeriodicCollection(ctx context.Context, provider InvoiceStatsProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	im.collect(ctx, provider)
	for {
		select {
		case <-im.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			im.collect(ctx, provider)
		}
	}
}

func (im *InvoiceMetrics) collect(ctx context.Context, provider InvoiceStatsProvider) {
	counts, err := provider.InvoiceCountsByStatus(ctx)
	if err != nil {
		im.logger.Warn("Failed to collect invoice counts", zap.Error(err))
		return
	}
	for status, n := range counts {
		im.invoicesCurrent.Record(ctx, n, attribute.String(string(AttrInvoiceStatus), status))
	}
}

// Stop stops the periodic collection.
func (im *InvoiceMetrics) Stop() {
	im.stopOnce.Do(func() {
		close(im.stopChan)
	})
}

var _ shared.EventHandler = (*InvoiceMetrics)(nil)
