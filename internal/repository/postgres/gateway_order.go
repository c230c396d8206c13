package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/repository"
)

type gatewayOrderRepository struct {
	db *sql.DB
}

// NewGatewayOrderRepository creates a new GatewayOrderRepository backed by Postgres.
func NewGatewayOrderRepository(db *sql.DB) repository.GatewayOrderRepository {
	return &gatewayOrderRepository{db: db}
}

func (r *gatewayOrderRepository) UpdateProjection(ctx context.Context, event entity.Event) error {
	switch e := event.(type) {
	case entity.GatewayOrderCreated:
		// Redelivered events leave the row alone.
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO gateway_orders (order_id, checkout_id, session_id, game_slug, item_slug, payment_method, total, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) ON CONFLICT (order_id) DO NOTHING`,
			e.OrderID, e.CheckoutID, e.SessionID, e.GameSlug, e.ItemSlug, string(e.PaymentMethod),
			decimal.NewFromFloat(e.Total).StringFixed(2), entity.GatewayOrderRedirected, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert gateway order projection: %w", err)
		}
	case entity.PaymentAcknowledged:
		res, err := r.db.ExecContext(ctx,
			"UPDATE gateway_orders SET status = $1, updated_at = $2 WHERE order_id = $3",
			entity.GatewayOrderAcknowledged, e.AcknowledgedAt, e.OrderID,
		)
		if err != nil {
			return fmt.Errorf("failed to acknowledge gateway order: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: gateway order %s", repository.ErrNotFound, e.OrderID)
		}
	default:
		slog.Debug("Projection: ignoring event", "type", event.EventType())
	}
	return nil
}

const gatewayOrderColumns = "order_id, checkout_id, session_id, game_slug, item_slug, payment_method, total, status, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGatewayOrder(row rowScanner) (entity.GatewayOrder, error) {
	var (
		o      entity.GatewayOrder
		method string
		total  decimal.Decimal
	)
	if err := row.Scan(&o.OrderID, &o.CheckoutID, &o.SessionID, &o.GameSlug, &o.ItemSlug, &method, &total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return entity.GatewayOrder{}, err
	}
	o.PaymentMethod = entity.PaymentMethod(method)
	o.Total = total.InexactFloat64()
	return o, nil
}

func (r *gatewayOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*entity.GatewayOrder, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+gatewayOrderColumns+" FROM gateway_orders WHERE order_id = $1", orderID)
	o, err := scanGatewayOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: gateway order %s", repository.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan gateway order: %w", err)
	}
	return &o, nil
}

func (r *gatewayOrderRepository) FindRecentBySession(ctx context.Context, sessionID string, limit int) ([]entity.GatewayOrder, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+gatewayOrderColumns+" FROM gateway_orders WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2",
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query gateway orders: %w", err)
	}
	defer rows.Close()

	orders := []entity.GatewayOrder{}
	for rows.Next() {
		o, err := scanGatewayOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gateway order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gateway order rows: %w", err)
	}
	return orders, nil
}
