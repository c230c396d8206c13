package service

import (
	"context"

	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/storeapi"
	"github.com/bluebuff/storefront/internal/upi"
)

// TopUpAPI is the part of the remote API the services call.
// *storeapi.Client implements it.
type TopUpAPI interface {
	Me(ctx context.Context, token string) (*entity.UserProfile, error)
	Games(ctx context.Context) (*storeapi.Listing, error)
	Game(ctx context.Context, slug, token string) (*entity.GameDetail, error)
	UserOrders(ctx context.Context, token string, page, limit int, search string) ([]entity.Order, error)
	Banners(ctx context.Context) ([]entity.Banner, error)
	CreateGatewayOrder(ctx context.Context, req entity.OrderRequest) (*entity.PendingOrder, error)
}

// PaymentCodeGenerator renders UPI payment codes. *upi.Encoder implements it.
type PaymentCodeGenerator interface {
	Generate(ctx context.Context, req upi.PaymentRequest) (*upi.Code, error)
}
