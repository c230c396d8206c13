package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/repository"
)

type gatewayOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]entity.GatewayOrder
}

// NewGatewayOrderRepository creates a GatewayOrderRepository kept in memory.
func NewGatewayOrderRepository() repository.GatewayOrderRepository {
	return &gatewayOrderRepository{orders: make(map[string]entity.GatewayOrder)}
}

func (r *gatewayOrderRepository) UpdateProjection(ctx context.Context, event entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := event.(type) {
	case entity.GatewayOrderCreated:
		if _, ok := r.orders[e.OrderID]; ok {
			return nil
		}
		r.orders[e.OrderID] = entity.GatewayOrder{
			OrderID:       e.OrderID,
			CheckoutID:    e.CheckoutID,
			SessionID:     e.SessionID,
			GameSlug:      e.GameSlug,
			ItemSlug:      e.ItemSlug,
			PaymentMethod: e.PaymentMethod,
			Total:         e.Total,
			Status:        entity.GatewayOrderRedirected,
			CreatedAt:     e.CreatedAt,
			UpdatedAt:     e.CreatedAt,
		}
	case entity.PaymentAcknowledged:
		o, ok := r.orders[e.OrderID]
		if !ok {
			return fmt.Errorf("%w: gateway order %s", repository.ErrNotFound, e.OrderID)
		}
		o.Status = entity.GatewayOrderAcknowledged
		o.UpdatedAt = e.AcknowledgedAt
		r.orders[e.OrderID] = o
	}
	return nil
}

func (r *gatewayOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*entity.GatewayOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: gateway order %s", repository.ErrNotFound, orderID)
	}
	return &o, nil
}

func (r *gatewayOrderRepository) FindRecentBySession(ctx context.Context, sessionID string, limit int) ([]entity.GatewayOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := []entity.GatewayOrder{}
	for _, o := range r.orders {
		if o.SessionID == sessionID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}
