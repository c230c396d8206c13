package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/messaging"
	"github.com/bluebuff/storefront/internal/repository"
	"github.com/bluebuff/storefront/internal/session"
)

// ProjectionService keeps the gateway_orders read model in step with the
// checkout events coming off the broker.
type ProjectionService struct {
	orders repository.GatewayOrderRepository
}

func NewProjectionService(orders repository.GatewayOrderRepository) *ProjectionService {
	return &ProjectionService{orders: orders}
}

// HandleMessage is the broker handler for the checkout topic.
func (s *ProjectionService) HandleMessage(ctx context.Context, msg messaging.Message) error {
	event, err := entity.DecodeCheckoutEvent(msg.Type, msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to decode checkout event: %w", err)
	}
	return s.HandleEvent(ctx, event)
}

// HandleEvent applies one event to the read model. Events that do not
// touch gateway orders are ignored.
func (s *ProjectionService) HandleEvent(ctx context.Context, event entity.Event) error {
	switch e := event.(type) {
	case entity.GatewayOrderCreated:
		slog.Info("Projection: Recording gateway order", "order_id", e.OrderID, "checkout_id", e.CheckoutID)
	case entity.PaymentAcknowledged:
		slog.Info("Projection: Acknowledging gateway order", "order_id", e.OrderID)
	default:
		return nil
	}
	if err := s.orders.UpdateProjection(ctx, event); err != nil {
		return fmt.Errorf("failed to update gateway order projection: %w", err)
	}
	return nil
}

// RecentGatewayOrders returns the latest orders the session handed to the
// gateway.
func (s *ProjectionService) RecentGatewayOrders(ctx context.Context, sess *session.Session, limit int) ([]entity.GatewayOrder, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	return s.orders.FindRecentBySession(ctx, sess.ID(), limit)
}

// GatewayOrder returns one order of the session. Orders of other sessions
// are reported as not found.
func (s *ProjectionService) GatewayOrder(ctx context.Context, sess *session.Session, orderID string) (*entity.GatewayOrder, error) {
	o, err := s.orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.SessionID != sess.ID() {
		return nil, fmt.Errorf("%w: gateway order %s", repository.ErrNotFound, orderID)
	}
	return o, nil
}
