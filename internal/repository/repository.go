package repository

import (
	"context"
	"errors"

	"github.com/bluebuff/storefront/internal/entity"
)

// ErrConcurrency is returned when a stream was appended to after it was loaded.
var ErrConcurrency = errors.New("concurrency conflict: stream version changed")

// ErrNotFound is returned when a stream or read model row does not exist.
var ErrNotFound = errors.New("not found")

// EventStore handles appending and loading events for an aggregate stream.
type EventStore interface {
	SaveEvents(ctx context.Context, streamID string, streamType string, expectedVersion int, events []entity.Event) error
	LoadEvents(ctx context.Context, streamID string) ([]entity.EventStoreRecord, error)
}

// GatewayOrderRepository handles the gateway_orders read model.
type GatewayOrderRepository interface {
	UpdateProjection(ctx context.Context, event entity.Event) error
	FindByOrderID(ctx context.Context, orderID string) (*entity.GatewayOrder, error)
	// FindRecentBySession lists the newest orders placed from one session.
	FindRecentBySession(ctx context.Context, sessionID string, limit int) ([]entity.GatewayOrder, error)
}
