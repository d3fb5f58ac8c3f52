package cache

import (
	"context"

	"github.com/gcs/crm/internal/domain/shared"
	"go.uber.org/zap"
)

// InvalidationHandler drops cache keys whenever one of its event types is published
type InvalidationHandler struct {
	cache      Cache
	keys       []string
	eventTypes []string
	logger     *zap.Logger
}

// NewInvalidationHandler creates a handler deleting keys on eventTypes
func NewInvalidationHandler(cache Cache, keys []string, eventTypes []string, logger *zap.Logger) *InvalidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvalidationHandler{
		cache:      cache,
		keys:       keys,
		eventTypes: eventTypes,
		logger:     logger,
	}
}

// Handle deletes the configured keys
func (h *InvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := h.cache.Delete(ctx, h.keys...); err != nil {
		return err
	}
	h.logger.Debug("Cache invalidated",
		zap.String("event_type", event.EventType()),
		zap.Strings("keys", h.keys),
	)
	return nil
}

// EventTypes returns the event types that invalidate the keys
func (h *InvalidationHandler) EventTypes() []string {
	return h.eventTypes
}

var _ shared.EventHandler = (*InvalidationHandler)(nil)
