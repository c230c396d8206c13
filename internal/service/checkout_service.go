package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bluebuff/storefront/internal/catalog"
	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/messaging"
	"github.com/bluebuff/storefront/internal/pricing"
	"github.com/bluebuff/storefront/internal/repository"
	"github.com/bluebuff/storefront/internal/session"
	"github.com/bluebuff/storefront/internal/storeapi"
	"github.com/bluebuff/storefront/internal/upi"
)

const checkoutStreamType = "checkout"

// Payee is the UPI account payment codes pay into.
type Payee struct {
	Address string
	Name    string
}

// StartInput is what the buy page submits to open a checkout. Prices and
// discounts are never taken from it.
type StartInput struct {
	GameSlug string `json:"gameSlug"`
	ItemSlug string `json:"itemSlug"`
	PlayerID string `json:"playerId"`
	ZoneID   string `json:"zoneId"`
}

// CheckoutService drives the review, payment and redirect steps of a
// purchase over the checkout event stream.
type CheckoutService struct {
	eventStore repository.EventStore
	publisher  messaging.Publisher
	api        TopUpAPI
	codes      PaymentCodeGenerator
	payee      Payee
	discounts  pricing.DiscountTable
	topic      string
	now        func() time.Time
}

func NewCheckoutService(
	eventStore repository.EventStore,
	publisher messaging.Publisher,
	api TopUpAPI,
	codes PaymentCodeGenerator,
	payee Payee,
	discounts pricing.DiscountTable,
	topic string,
) *CheckoutService {
	return &CheckoutService{
		eventStore: eventStore,
		publisher:  publisher,
		api:        api,
		codes:      codes,
		payee:      payee,
		discounts:  discounts,
		topic:      topic,
		now:        time.Now,
	}
}

// Start opens a checkout for one package. The price comes from the API and
// the discount from the configured table, never from the browser.
func (s *CheckoutService) Start(ctx context.Context, sess *session.Session, in StartInput) (*entity.CheckoutSession, error) {
	slog.Info("Service: Starting checkout", "session", sess.ID(), "game", in.GameSlug, "item", in.ItemSlug)

	token, err := sess.Token(ctx)
	if err != nil {
		return nil, err
	}

	game, err := s.api.Game(ctx, in.GameSlug, token)
	if err != nil {
		return nil, notFoundOr(err, ErrGameNotFound)
	}
	selection := catalog.NewSelection()
	selection.Load(game.Items)
	item, ok := selection.Find(in.ItemSlug)
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownItem, in.ItemSlug)
	}

	cmd := entity.StartCheckout{
		CheckoutID: uuid.NewString(),
		SessionID:  sess.ID(),
		GameSlug:   game.GameSlug,
		Item:       &item,
		PlayerID:   in.PlayerID,
		ZoneID:     in.ZoneID,
		Discount:   s.discounts.For(game.GameSlug, item.ItemSlug),
	}

	if token != "" {
		profile, err := s.api.Me(ctx, token)
		switch {
		case err == nil:
			cmd.UserName = profile.Name
			cmd.Email = profile.Email
			cmd.Phone = profile.Phone
			cmd.WalletBalance = profile.Wallet
		case isRejected(err):
			slog.Info("Service: Token rejected, continuing as guest", "session", sess.ID())
			if err := sess.ClearToken(ctx); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
	}
	if cmd.Phone == "" {
		if cmd.Phone, err = sess.Phone(ctx); err != nil {
			return nil, err
		}
	}
	if cmd.UserID, err = sess.UserID(ctx); err != nil {
		return nil, err
	}

	started, err := entity.NewCheckout(cmd, s.now())
	if err != nil {
		return nil, explain(err, item.SellingPrice)
	}

	agg := entity.NewCheckoutSession(cmd.CheckoutID)
	if err := s.append(ctx, agg, started); err != nil {
		return nil, err
	}
	return agg, nil
}

// Get returns the checkout if it belongs to the session.
func (s *CheckoutService) Get(ctx context.Context, sess *session.Session, checkoutID string) (*entity.CheckoutSession, error) {
	records, err := s.eventStore.LoadEvents(ctx, checkoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout history: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCheckoutNotFound, checkoutID)
	}

	agg := entity.NewCheckoutSession(checkoutID)
	if err := agg.Rehydrate(records); err != nil {
		return nil, fmt.Errorf("failed to rehydrate checkout aggregate: %w", err)
	}
	if agg.SessionID != sess.ID() {
		return nil, fmt.Errorf("%w: %s", ErrCheckoutNotFound, checkoutID)
	}
	return agg, nil
}

// ChoosePaymentMethod records the method. Choosing UPI renders the payment
// code; a rendering failure is recorded on the checkout, not returned.
func (s *CheckoutService) ChoosePaymentMethod(ctx context.Context, sess *session.Session, checkoutID, method string) (*entity.CheckoutSession, error) {
	agg, err := s.Get(ctx, sess, checkoutID)
	if err != nil {
		return nil, err
	}

	m, err := entity.ParsePaymentMethod(method)
	if err != nil {
		return agg, explain(err, agg.Total)
	}
	chosen, err := agg.ChoosePaymentMethod(m, s.now())
	if err != nil {
		return agg, explain(err, agg.Total)
	}
	if err := s.append(ctx, agg, chosen); err != nil {
		return agg, err
	}

	if m != entity.PaymentUPI {
		return agg, nil
	}

	var event entity.Event
	code, err := s.codes.Generate(ctx, upi.PaymentRequest{
		PayeeAddress: s.payee.Address,
		PayeeName:    s.payee.Name,
		Amount:       agg.Total,
		Currency:     entity.Currency,
	})
	if err != nil {
		slog.Error("Failed to generate UPI code", "checkout_id", checkoutID, "err", err)
		event, err = agg.RecordPaymentCodeFailure(err.Error())
	} else {
		event, err = agg.RecordPaymentCode(code.PaymentString, code.DataURL)
	}
	if err != nil {
		return agg, err
	}
	if err := s.append(context.WithoutCancel(ctx), agg, event); err != nil {
		return agg, err
	}
	return agg, nil
}

// Proceed places the gateway order. At most one order creation call is
// made per checkout: a concurrent second attempt loses the append race
// and gets ErrSubmissionInFlight.
func (s *CheckoutService) Proceed(ctx context.Context, sess *session.Session, checkoutID string) (*entity.CheckoutSession, error) {
	agg, err := s.Get(ctx, sess, checkoutID)
	if err != nil {
		return nil, err
	}

	begun, err := agg.BeginSubmission(s.now())
	if err != nil {
		return agg, explain(err, agg.Total)
	}
	if err := s.append(ctx, agg, begun); err != nil {
		if errors.Is(err, repository.ErrConcurrency) {
			return agg, explain(entity.ErrSubmissionInFlight, agg.Total)
		}
		return agg, err
	}

	slog.Info("Service: Creating gateway order", "checkout_id", checkoutID, "method", agg.PaymentMethod, "total", agg.Total)
	order, callErr := s.api.CreateGatewayOrder(ctx, agg.OrderRequest())

	// The outcome is recorded even if the caller went away mid-call.
	ctx = context.WithoutCancel(ctx)

	if callErr != nil {
		slog.Error("Failed to create gateway order", "checkout_id", checkoutID, "err", callErr)
		return s.failSubmission(ctx, agg, orderFailure(callErr))
	}

	// No redirect without the marker.
	if err := sess.SetPendingOrder(ctx, order.OrderID); err != nil {
		slog.Error("Failed to persist pending order marker", "checkout_id", checkoutID, "order_id", order.OrderID, "err", err)
		return s.failSubmission(ctx, agg, &UserError{Message: genericFailure, Err: err})
	}

	created, err := agg.CompleteSubmission(*order, s.now())
	if err != nil {
		return agg, err
	}
	if err := s.append(ctx, agg, created); err != nil {
		return agg, err
	}
	return agg, nil
}

// failSubmission puts the checkout back on the payment step and returns the
// failure for the shopper.
func (s *CheckoutService) failSubmission(ctx context.Context, agg *entity.CheckoutSession, failure *UserError) (*entity.CheckoutSession, error) {
	failed, err := agg.FailSubmission(failure.Message, s.now())
	if err != nil {
		return agg, err
	}
	if err := s.append(ctx, agg, failed); err != nil {
		return agg, err
	}
	return agg, failure
}

// Acknowledge records "I Have Paid". Payment is not verified.
func (s *CheckoutService) Acknowledge(ctx context.Context, sess *session.Session, checkoutID string) (*entity.CheckoutSession, error) {
	agg, err := s.Get(ctx, sess, checkoutID)
	if err != nil {
		return nil, err
	}
	acked, err := agg.Acknowledge(s.now())
	if err != nil {
		return agg, err
	}
	if err := s.append(ctx, agg, acked); err != nil {
		return agg, err
	}
	return agg, nil
}

// PaymentCode returns the PNG of the UPI code of a placed order.
func (s *CheckoutService) PaymentCode(ctx context.Context, sess *session.Session, checkoutID string) ([]byte, error) {
	agg, err := s.Get(ctx, sess, checkoutID)
	if err != nil {
		return nil, err
	}
	dataURL, err := agg.PaymentCode()
	if err != nil {
		return nil, err
	}
	png, err := upi.DecodeDataURL(dataURL)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored payment code: %w", err)
	}
	return png, nil
}

// append persists events at the aggregate's version, applies them and
// publishes them. Publishing failures are logged; the store is the record.
func (s *CheckoutService) append(ctx context.Context, agg *entity.CheckoutSession, events ...entity.Event) error {
	if err := s.eventStore.SaveEvents(ctx, agg.GetAggregateID(), checkoutStreamType, agg.GetVersion(), events); err != nil {
		return fmt.Errorf("failed to save checkout events: %w", err)
	}
	for _, e := range events {
		if err := agg.ApplyEvent(e); err != nil {
			return err
		}
		if err := s.publisher.PublishEvent(ctx, s.topic, agg.GetAggregateID(), e); err != nil {
			slog.Error("Failed to publish checkout event", "checkout_id", agg.GetAggregateID(), "type", e.EventType(), "err", err)
		}
	}
	return nil
}

// isRejected reports whether the API refused the request itself rather
// than being unreachable.
func isRejected(err error) bool {
	var apiErr *storeapi.APIError
	return errors.As(err, &apiErr)
}

func notFoundOr(err, notFound error) error {
	var apiErr *storeapi.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %v", notFound, err)
	}
	return err
}
