package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluebuff/storefront/internal/catalog"
	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/messaging"
	busmem "github.com/bluebuff/storefront/internal/messaging/memory"
	"github.com/bluebuff/storefront/internal/pricing"
	"github.com/bluebuff/storefront/internal/repository"
	repomem "github.com/bluebuff/storefront/internal/repository/memory"
	"github.com/bluebuff/storefront/internal/session"
	"github.com/bluebuff/storefront/internal/storeapi"
)

const topic = "checkout.events"

type checkoutFixture struct {
	svc        *CheckoutService
	api        *fakeAPI
	codes      *fakeCodes
	sessions   *session.Manager
	sess       *session.Session
	projection *ProjectionService
	bus        *busmem.Bus
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	api := &fakeAPI{
		profile: &entity.UserProfile{Name: "Asha", Email: "asha@example.in", Phone: "9876543210", Wallet: 1000},
		game:    testGame(),
		order:   &entity.PendingOrder{OrderID: "ord-1", PaymentURL: "https://pay.example/ord-1"},
	}
	codes := &fakeCodes{}
	bus := busmem.NewBus()
	projection := NewProjectionService(repomem.NewGatewayOrderRepository())
	require.NoError(t, bus.Subscribe(topic, projection.HandleMessage))
	t.Cleanup(func() { bus.Close() })

	sessions := session.NewManager(session.NewMemoryStore(0))
	sess := sessions.Open("sid-1")
	require.NoError(t, sess.Login(context.Background(), "tok", "", "user-1"))

	svc := NewCheckoutService(repomem.NewEventStore(), bus, api, codes, Payee{Address: "shop@upi", Name: "Blue Buff"}, nil, topic)
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }

	return &checkoutFixture{svc: svc, api: api, codes: codes, sessions: sessions, sess: sess, projection: projection, bus: bus}
}

func (f *checkoutFixture) start(t *testing.T, item string) *entity.CheckoutSession {
	t.Helper()
	agg, err := f.svc.Start(context.Background(), f.sess, StartInput{GameSlug: "mlbb", ItemSlug: item, PlayerID: "12345", ZoneID: "678"})
	require.NoError(t, err)
	return agg
}

func requireUserError(t *testing.T, err error, message string) {
	t.Helper()
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, message, ue.Message)
}

func TestCheckout_StartUsesCatalogPriceAndProfile(t *testing.T) {
	f := newCheckoutFixture(t)

	agg := f.start(t, "d-86")

	assert.Equal(t, entity.StateReview, agg.State)
	assert.Equal(t, 120.0, agg.Total)
	assert.Equal(t, 1000.0, agg.WalletBalance)
	assert.Equal(t, "9876543210", agg.Phone)
	assert.Equal(t, "user-1", agg.UserID)
	assert.Equal(t, "sid-1", agg.SessionID)
	assert.False(t, agg.CanProceed())
}

func TestCheckout_StartValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown item", func(t *testing.T) {
		f := newCheckoutFixture(t)
		_, err := f.svc.Start(ctx, f.sess, StartInput{GameSlug: "mlbb", ItemSlug: "nope"})
		assert.ErrorIs(t, err, catalog.ErrUnknownItem)
	})

	t.Run("unknown game", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.api.gameErr = &storeapi.APIError{Op: "games/x", Status: http.StatusNotFound, Message: "Game not found"}
		_, err := f.svc.Start(ctx, f.sess, StartInput{GameSlug: "x", ItemSlug: "d-86"})
		assert.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("phone falls back to session", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.api.profile.Phone = ""
		require.NoError(t, f.sess.Login(ctx, "tok", "9000000001", ""))
		agg := f.start(t, "d-86")
		assert.Equal(t, "9000000001", agg.Phone)
	})

	t.Run("phone missing", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.api.profile.Phone = ""
		_, err := f.svc.Start(ctx, f.sess, StartInput{GameSlug: "mlbb", ItemSlug: "d-86"})
		requireUserError(t, err, "Phone number missing. Please log in again.")
		assert.ErrorIs(t, err, entity.ErrPhoneMissing)
	})

	t.Run("rejected token continues as guest", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.api.meErr = &storeapi.APIError{Op: "auth/me", Status: http.StatusUnauthorized, Message: "Invalid token"}
		require.NoError(t, f.sess.Login(ctx, "stale", "9000000002", ""))

		agg := f.start(t, "d-86")
		assert.Equal(t, 0.0, agg.WalletBalance)
		token, _ := f.sess.Token(ctx)
		assert.Empty(t, token)
	})

	t.Run("unreachable profile fails", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.api.meErr = errUnreachable
		_, err := f.svc.Start(ctx, f.sess, StartInput{GameSlug: "mlbb", ItemSlug: "d-86"})
		assert.ErrorIs(t, err, errUnreachable)
		token, _ := f.sess.Token(ctx)
		assert.Equal(t, "tok", token)
	})
}

func TestCheckout_WalletInsufficientKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.api.profile.Wallet = 100
	agg := f.start(t, "d-500")

	got, err := f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "wallet")
	requireUserError(t, err, "Insufficient balance (₹500 required)")
	assert.ErrorIs(t, err, entity.ErrInsufficientBalance)
	assert.Equal(t, entity.StateReview, got.State)
	assert.Equal(t, entity.PaymentNone, got.PaymentMethod)

	_, err = f.svc.Proceed(ctx, f.sess, agg.ID)
	requireUserError(t, err, "Please select a payment method")
	assert.Zero(t, f.api.calls())
}

func TestCheckout_UnknownMethod(t *testing.T) {
	f := newCheckoutFixture(t)
	agg := f.start(t, "d-86")

	_, err := f.svc.ChoosePaymentMethod(context.Background(), f.sess, agg.ID, "card")
	assert.ErrorIs(t, err, entity.ErrUnknownPaymentMethod)
}

func TestCheckout_WalletOrderRedirects(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	agg := f.start(t, "d-86")

	agg, err := f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "wallet")
	require.NoError(t, err)
	assert.True(t, agg.CanProceed())
	assert.Zero(t, f.codes.calls)

	agg, err = f.svc.Proceed(ctx, f.sess, agg.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StateRedirectedExternal, agg.State)
	assert.Equal(t, "https://pay.example/ord-1", agg.Order.PaymentURL)

	req := f.api.lastRequest
	assert.Equal(t, entity.PaymentWallet, req.PaymentMethod)
	assert.Equal(t, 120.0, req.Price)
	assert.Equal(t, "12345", req.PlayerID)
	require.NotNil(t, req.Email)
	assert.Equal(t, "asha@example.in", *req.Email)

	_, err = f.svc.PaymentCode(ctx, f.sess, agg.ID)
	assert.ErrorIs(t, err, entity.ErrPaymentCodeUnavailable)
}

func TestCheckout_UPIFlow(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	agg := f.start(t, "d-86")

	agg, err := f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "upi")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentCodeReady, agg.CodeStatus)
	assert.Equal(t, "upi://pay?pa=shop@upi&pn=Blue%20Buff&am=120&cu=INR", agg.PaymentString)

	_, err = f.svc.PaymentCode(ctx, f.sess, agg.ID)
	assert.ErrorIs(t, err, entity.ErrPaymentCodeUnavailable, "no QR before an order exists")

	agg, err = f.svc.Proceed(ctx, f.sess, agg.ID)
	require.NoError(t, err)

	png, err := f.svc.PaymentCode(ctx, f.sess, agg.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	agg, err = f.svc.Acknowledge(ctx, f.sess, agg.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StateComplete, agg.State)

	_, err = f.svc.Acknowledge(ctx, f.sess, agg.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	orders, err := f.projection.RecentGatewayOrders(ctx, f.sess, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ord-1", orders[0].OrderID)
	assert.Equal(t, entity.GatewayOrderAcknowledged, orders[0].Status)

	other := f.sessions.Open("sid-2")
	orders, err = f.projection.RecentGatewayOrders(ctx, other, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = f.projection.GatewayOrder(ctx, other, "ord-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	order, err := f.projection.GatewayOrder(ctx, f.sess, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, agg.ID, order.CheckoutID)
}

func TestCheckout_UPICodeFailureThenRetry(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.codes.err = errors.New("encoder broke")
	agg := f.start(t, "d-86")

	agg, err := f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "upi")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentCodeFailed, agg.CodeStatus)
	assert.Equal(t, "encoder broke", agg.CodeError)

	f.codes.err = nil
	agg, err = f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "upi")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentCodeReady, agg.CodeStatus)
	assert.Equal(t, 2, f.codes.calls)
}

func TestCheckout_FailureRollsBack(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"application failure", &storeapi.APIError{Op: "order", Status: http.StatusOK, Message: "Out of stock"}, "Order failed: Out of stock"},
		{"transport failure", errUnreachable, "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture(t)
			agg := f.start(t, "d-86")
			_, err := f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "wallet")
			require.NoError(t, err)

			f.api.createErr = tt.err
			agg, err = f.svc.Proceed(ctx, f.sess, agg.ID)
			requireUserError(t, err, tt.message)
			assert.Equal(t, entity.StateAwaitingPaymentChoice, agg.State)
			assert.Equal(t, tt.message, agg.LastError)
			assert.True(t, agg.CanProceed())

			pending, err := f.sess.PendingOrder(ctx)
			require.NoError(t, err)
			assert.Empty(t, pending)

			f.api.createErr = nil
			agg, err = f.svc.Proceed(ctx, f.sess, agg.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.StateRedirectedExternal, agg.State)
			assert.Empty(t, agg.LastError)
			assert.Equal(t, 2, f.api.calls())
		})
	}
}

func TestCheckout_SecondProceedWhileInFlight(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	agg := f.start(t, "d-86")
	_, err := f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "wallet")
	require.NoError(t, err)

	f.api.entered = make(chan struct{})
	f.api.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Proceed(ctx, f.sess, agg.ID)
		done <- err
	}()
	<-f.api.entered

	_, err = f.svc.Proceed(ctx, f.sess, agg.ID)
	requireUserError(t, err, "Your order is already being placed")
	assert.ErrorIs(t, err, entity.ErrSubmissionInFlight)

	close(f.api.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.api.calls())
}

func TestCheckout_ConcurrentProceedCreatesOneOrder(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	agg := f.start(t, "d-86")
	_, err := f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "wallet")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Proceed(ctx, f.sess, agg.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.api.calls())
}

func TestCheckout_PendingOrderPersistedBeforeRedirectEvent(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	var markerAtEvent string
	require.NoError(t, f.bus.Subscribe(topic, func(ctx context.Context, msg messaging.Message) error {
		if msg.Type == "GatewayOrderCreated" {
			var err error
			markerAtEvent, err = f.sess.PendingOrder(ctx)
			return err
		}
		return nil
	}))

	agg := f.start(t, "d-86")
	_, err := f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "wallet")
	require.NoError(t, err)
	_, err = f.svc.Proceed(ctx, f.sess, agg.ID)
	require.NoError(t, err)

	assert.Equal(t, "ord-1", markerAtEvent)
}

// markerFailingStore refuses to store the pending order marker.
type markerFailingStore struct {
	session.Store
}

func (s markerFailingStore) Set(ctx context.Context, id string, values map[string]string) error {
	if _, ok := values[session.KeyPendingOrder]; ok {
		return errors.New("storage quota exceeded")
	}
	return s.Store.Set(ctx, id, values)
}

func TestCheckout_MarkerFailureBlocksRedirect(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.sess = session.NewManager(markerFailingStore{Store: session.NewMemoryStore(0)}).Open("sid-1")
	require.NoError(t, f.sess.Login(ctx, "tok", "", "user-1"))

	agg := f.start(t, "d-86")
	_, err := f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "wallet")
	require.NoError(t, err)

	agg, err = f.svc.Proceed(ctx, f.sess, agg.ID)
	requireUserError(t, err, "Something went wrong. Please try again.")
	assert.Equal(t, entity.StateAwaitingPaymentChoice, agg.State)
	assert.Nil(t, agg.Order)
	assert.True(t, agg.CanProceed())

	reloaded, err := f.svc.Get(ctx, f.sess, agg.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StateAwaitingPaymentChoice, reloaded.State)

	orders, err := f.projection.RecentGatewayOrders(ctx, f.sess, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckout_DiscountComesFromTable(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.svc.discounts = pricing.DiscountTable{"mlbb/d-86": 20, "mlbb/d-11": 18}

	agg := f.start(t, "d-86")
	assert.Equal(t, 20.0, agg.Discount)
	assert.Equal(t, 100.0, agg.Total)

	_, err := f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "wallet")
	require.NoError(t, err)
	_, err = f.svc.Proceed(ctx, f.sess, agg.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, f.api.lastRequest.Price)

	agg = f.start(t, "d-500")
	assert.Zero(t, agg.Discount)
	assert.Equal(t, 500.0, agg.Total)

	_, err = f.svc.Start(ctx, f.sess, StartInput{GameSlug: "mlbb", ItemSlug: "d-11"})
	assert.ErrorIs(t, err, entity.ErrInvalidDiscount, "a discount may not zero the total")
}

// Item at ₹500 listed at ₹700, empty wallet: the badge reads 29% OFF, the
// wallet is refused and UPI encodes the exact amount.
func TestScenario_DiscountedItemEmptyWalletPaysByUPI(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.api.profile.Wallet = 0

	storefront := NewStorefrontService(f.api, catalog.NewBrowser(nil), 5, 0)
	view, err := storefront.Game(ctx, f.sess, "mlbb", "d-500", catalog.ViewGrid, 1)
	require.NoError(t, err)
	require.NotNil(t, view.Active)
	assert.Equal(t, "d-500", view.Active.ItemSlug)
	assert.Equal(t, "29% OFF", view.Active.Badge)

	agg := f.start(t, "d-500")
	assert.False(t, agg.WalletSelectable())

	agg, err = f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "wallet")
	requireUserError(t, err, "Insufficient balance (₹500 required)")
	assert.Equal(t, entity.PaymentNone, agg.PaymentMethod)

	agg, err = f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "upi")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentUPI, agg.PaymentMethod)
	assert.Equal(t, entity.PaymentCodeReady, agg.CodeStatus)
	assert.NotEmpty(t, agg.PaymentString)
	assert.Contains(t, agg.PaymentString, "am=500&")
}

func TestCheckout_OtherSessionCannotSeeCheckout(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	agg := f.start(t, "d-86")

	other := f.sessions.Open("sid-2")
	_, err := f.svc.Get(ctx, other, agg.ID)
	assert.ErrorIs(t, err, ErrCheckoutNotFound)

	_, err = f.svc.Proceed(ctx, other, agg.ID)
	assert.ErrorIs(t, err, ErrCheckoutNotFound)

	_, err = f.svc.Get(ctx, f.sess, "missing")
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
}

func TestCheckout_VersionConflictOnChoose(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	agg := f.start(t, "d-86")

	stale, err := f.svc.Get(ctx, f.sess, agg.ID)
	require.NoError(t, err)
	_, err = f.svc.ChoosePaymentMethod(ctx, f.sess, agg.ID, "wallet")
	require.NoError(t, err)

	chosen, err := stale.ChoosePaymentMethod(entity.PaymentUPI, time.Now())
	require.NoError(t, err)
	err = f.svc.append(ctx, stale, chosen)
	assert.ErrorIs(t, err, repository.ErrConcurrency)
}

func TestProjection_IgnoresOtherEventsAndRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	p := NewProjectionService(repomem.NewGatewayOrderRepository())

	require.NoError(t, p.HandleEvent(ctx, entity.PaymentMethodChosen{CheckoutID: "c1"}))
	err := p.HandleMessage(ctx, messaging.Message{Type: "Unknown", Payload: []byte(`{}`)})
	assert.Error(t, err)

	orders, err := p.RecentGatewayOrders(ctx, session.NewManager(session.NewMemoryStore(0)).Open("sid-1"), 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
