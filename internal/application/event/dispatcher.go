// Package event publishes the domain events recorded by aggregates once the
// aggregates have been persisted.
package event

import (
	"context"

	"github.com/gcs/crm/internal/domain/shared"
	"go.uber.org/zap"
)

// Dispatcher drains pending events from aggregates into a publisher.
// A nil Dispatcher or one without a publisher only clears the events.
type Dispatcher struct {
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher publishing to publisher
func NewDispatcher(publisher shared.EventPublisher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{publisher: publisher, logger: logger}
}

// Dispatch publishes and clears the pending events of each aggregate.
// Publishing failures are logged; the change they describe is already stored.
func (d *Dispatcher) Dispatch(ctx context.Context, aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		events := agg.GetDomainEvents()
		agg.ClearDomainEvents()
		if d == nil || d.publisher == nil || len(events) == 0 {
			continue
		}
		if err := d.publisher.Publish(ctx, events...); err != nil {
			d.logger.Warn("Failed to publish domain events",
				zap.String("aggregate_id", agg.GetID().String()),
				zap.Int("event_count", len(events)),
				zap.Error(err),
			)
		}
	}
}
