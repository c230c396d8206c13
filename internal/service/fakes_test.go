package service

import (
	"context"
	"errors"
	"sync"

	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/storeapi"
	"github.com/bluebuff/storefront/internal/upi"
)

type fakeAPI struct {
	mu sync.Mutex

	profile *entity.UserProfile
	meErr   error
	game    *entity.GameDetail
	gameErr error
	listing *storeapi.Listing
	banners []entity.Banner

	orders       []entity.Order
	ordersCalls  []int
	ordersSearch string

	order       *entity.PendingOrder
	createErr   error
	createCalls int
	lastRequest entity.OrderRequest
	// entered and release, when set, hold CreateGatewayOrder mid-call.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeAPI) Me(ctx context.Context, token string) (*entity.UserProfile, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	p := *f.profile
	return &p, nil
}

func (f *fakeAPI) Games(ctx context.Context) (*storeapi.Listing, error) {
	return f.listing, nil
}

func (f *fakeAPI) Game(ctx context.Context, slug, token string) (*entity.GameDetail, error) {
	if f.gameErr != nil {
		return nil, f.gameErr
	}
	g := *f.game
	return &g, nil
}

func (f *fakeAPI) UserOrders(ctx context.Context, token string, page, limit int, search string) ([]entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ordersCalls = append(f.ordersCalls, page)
	f.ordersSearch = search
	if len(f.orders) > limit {
		return f.orders[:limit], nil
	}
	return f.orders, nil
}

func (f *fakeAPI) Banners(ctx context.Context) ([]entity.Banner, error) {
	return f.banners, nil
}

func (f *fakeAPI) CreateGatewayOrder(ctx context.Context, req entity.OrderRequest) (*entity.PendingOrder, error) {
	f.mu.Lock()
	f.createCalls++
	f.lastRequest = req
	entered, release := f.entered, f.release
	order, err := f.order, f.createErr
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	if err != nil {
		return nil, err
	}
	o := *order
	return &o, nil
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

type fakeCodes struct {
	err   error
	calls int
}

func (f *fakeCodes) Generate(ctx context.Context, req upi.PaymentRequest) (*upi.Code, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return upi.NewEncoder(64).Generate(ctx, req)
}

var errUnreachable = errors.New("dial tcp: connection refused")

func price(v float64) *float64 { return &v }

func testGame() *entity.GameDetail {
	return &entity.GameDetail{
		Game: entity.Game{GameSlug: "mlbb", GameName: "Mobile Legends"},
		Items: []entity.CatalogItem{
			{ItemSlug: "d-500", ItemName: "500 Diamonds", SellingPrice: 500, DummyPrice: price(700)},
			{ItemSlug: "d-86", ItemName: "86 Diamonds", SellingPrice: 120, DummyPrice: price(150)},
			{ItemSlug: "d-11", ItemName: "11 Diamonds", SellingPrice: 18},
			{ItemSlug: "d-257", ItemName: "257 Diamonds", SellingPrice: 300, DummyPrice: price(300)},
		},
	}
}
