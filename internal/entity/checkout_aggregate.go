package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bluebuff/storefront/internal/pricing"
)

// CheckoutState is a step of the purchase flow.
type CheckoutState string

const (
	StateReview                CheckoutState = "review"
	StateAwaitingPaymentChoice CheckoutState = "awaiting_payment_choice"
	StateSubmitting            CheckoutState = "submitting"
	StateRedirectedExternal    CheckoutState = "redirected_external"
	StateComplete              CheckoutState = "complete"
)

// PaymentCodeStatus tracks UPI code generation.
type PaymentCodeStatus string

const (
	PaymentCodeNone    PaymentCodeStatus = ""
	PaymentCodePending PaymentCodeStatus = "pending"
	PaymentCodeReady   PaymentCodeStatus = "ready"
	PaymentCodeFailed  PaymentCodeStatus = "failed"
)

// CheckoutSession manages the state of one purchase by replaying events.
type CheckoutSession struct {
	AggregateBase
	SessionID     string
	GameSlug      string
	Item          CatalogItem
	PlayerID      string
	ZoneID        string
	UserName      string
	Email         string
	Phone         string
	UserID        string
	WalletBalance float64
	Discount      float64
	Total         float64
	State         CheckoutState
	PaymentMethod PaymentMethod
	CodeStatus    PaymentCodeStatus
	PaymentString string
	CodeDataURL   string
	CodeError     string
	Order         *PendingOrder
	LastError     string
	CreatedAt     time.Time
}

// NewCheckoutSession creates an empty CheckoutSession to rehydrate into.
func NewCheckoutSession(id string) *CheckoutSession {
	return &CheckoutSession{
		AggregateBase: AggregateBase{ID: id, Version: 0},
	}
}

// NewCheckout validates a StartCheckout command and returns the opening event.
func NewCheckout(cmd StartCheckout, now time.Time) (CheckoutStarted, error) {
	if cmd.Item == nil || cmd.Item.ItemSlug == "" {
		return CheckoutStarted{}, ErrItemRequired
	}
	if cmd.Phone == "" {
		return CheckoutStarted{}, ErrPhoneMissing
	}
	// A discount never takes the total to zero.
	if cmd.Discount < 0 || (cmd.Discount > 0 && cmd.Discount >= cmd.Item.SellingPrice) {
		return CheckoutStarted{}, ErrInvalidDiscount
	}
	quote := pricing.Quote(cmd.Item.SellingPrice, cmd.Discount)
	return CheckoutStarted{
		CheckoutID:    cmd.CheckoutID,
		SessionID:     cmd.SessionID,
		GameSlug:      cmd.GameSlug,
		Item:          *cmd.Item,
		PlayerID:      cmd.PlayerID,
		ZoneID:        cmd.ZoneID,
		UserName:      cmd.UserName,
		Email:         cmd.Email,
		Phone:         cmd.Phone,
		UserID:        cmd.UserID,
		WalletBalance: cmd.WalletBalance,
		Discount:      quote.Discount.InexactFloat64(),
		Total:         quote.TotalFloat(),
		StartedAt:     now,
	}, nil
}

// ApplyEvent mutates the aggregate state based on the event.
func (a *CheckoutSession) ApplyEvent(e Event) error {
	switch e := e.(type) {
	case CheckoutStarted:
		a.SessionID = e.SessionID
		a.GameSlug = e.GameSlug
		a.Item = e.Item
		a.PlayerID = e.PlayerID
		a.ZoneID = e.ZoneID
		a.UserName = e.UserName
		a.Email = e.Email
		a.Phone = e.Phone
		a.UserID = e.UserID
		a.WalletBalance = e.WalletBalance
		a.Discount = e.Discount
		a.Total = e.Total
		a.State = StateReview
		a.CreatedAt = e.StartedAt
	case PaymentMethodChosen:
		a.PaymentMethod = e.Method
		a.State = StateAwaitingPaymentChoice
		a.LastError = ""
		a.PaymentString = ""
		a.CodeDataURL = ""
		a.CodeError = ""
		a.CodeStatus = PaymentCodeNone
		if e.Method == PaymentUPI {
			a.CodeStatus = PaymentCodePending
		}
	case PaymentCodeGenerated:
		a.CodeStatus = PaymentCodeReady
		a.PaymentString = e.PaymentString
		a.CodeDataURL = e.DataURL
	case PaymentCodeFailedEvent:
		a.CodeStatus = PaymentCodeFailed
		a.CodeError = e.Reason
	case SubmissionStarted:
		a.State = StateSubmitting
		a.LastError = ""
	case SubmissionFailed:
		a.State = StateAwaitingPaymentChoice
		a.LastError = e.Message
	case GatewayOrderCreated:
		a.Order = &PendingOrder{OrderID: e.OrderID, PaymentURL: e.PaymentURL}
		a.State = StateRedirectedExternal
	case PaymentAcknowledged:
		a.State = StateComplete
	default:
		return fmt.Errorf("unknown event type for CheckoutSession: %s", e.EventType())
	}
	a.Version++
	return nil
}

// Rehydrate rebuilds the aggregate from a list of records.
func (a *CheckoutSession) Rehydrate(records []EventStoreRecord) error {
	for _, rec := range records {
		e, err := decodeCheckoutEvent(rec)
		if err == nil {
			err = a.ApplyEvent(e)
		}
		if err != nil {
			return fmt.Errorf("failed to apply checkout event from stream: %w", err)
		}
	}
	return nil
}

func decodeCheckoutEvent(rec EventStoreRecord) (Event, error) {
	var err error
	switch rec.EventType {
	case "CheckoutStarted":
		var e CheckoutStarted
		err = json.Unmarshal(rec.Payload, &e)
		return e, err
	case "PaymentMethodChosen":
		var e PaymentMethodChosen
		err = json.Unmarshal(rec.Payload, &e)
		return e, err
	case "PaymentCodeGenerated":
		var e PaymentCodeGenerated
		err = json.Unmarshal(rec.Payload, &e)
		return e, err
	case "PaymentCodeFailed":
		var e PaymentCodeFailedEvent
		err = json.Unmarshal(rec.Payload, &e)
		return e, err
	case "SubmissionStarted":
		var e SubmissionStarted
		err = json.Unmarshal(rec.Payload, &e)
		return e, err
	case "SubmissionFailed":
		var e SubmissionFailed
		err = json.Unmarshal(rec.Payload, &e)
		return e, err
	case "GatewayOrderCreated":
		var e GatewayOrderCreated
		err = json.Unmarshal(rec.Payload, &e)
		return e, err
	case "PaymentAcknowledged":
		var e PaymentAcknowledged
		err = json.Unmarshal(rec.Payload, &e)
		return e, err
	default:
		return nil, fmt.Errorf("unknown event type in checkout stream: %s", rec.EventType)
	}
}

// DecodeCheckoutEvent turns a stored or published payload back into its event.
func DecodeCheckoutEvent(eventType string, payload []byte) (Event, error) {
	return decodeCheckoutEvent(EventStoreRecord{EventType: eventType, Payload: payload})
}

// Started reports whether the stream held a CheckoutStarted event.
func (a *CheckoutSession) Started() bool {
	return a.State != ""
}

// WalletSelectable reports whether the wallet covers the total.
func (a *CheckoutSession) WalletSelectable() bool {
	return pricing.Quote(a.Total, 0).Covers(a.WalletBalance)
}

// CanProceed mirrors the "Proceed to Pay" button: enabled only with a
// chosen, affordable method and no submission in flight.
func (a *CheckoutSession) CanProceed() bool {
	if a.State != StateAwaitingPaymentChoice || a.PaymentMethod == PaymentNone {
		return false
	}
	return a.PaymentMethod != PaymentWallet || a.WalletSelectable()
}

// ChoosePaymentMethod validates a payment method choice. A wallet that does
// not cover the total is rejected and the state is left unchanged.
func (a *CheckoutSession) ChoosePaymentMethod(m PaymentMethod, now time.Time) (PaymentMethodChosen, error) {
	if a.State != StateReview && a.State != StateAwaitingPaymentChoice {
		return PaymentMethodChosen{}, ErrInvalidTransition
	}
	switch m {
	case PaymentWallet:
		if !a.WalletSelectable() {
			return PaymentMethodChosen{}, ErrInsufficientBalance
		}
	case PaymentUPI:
	default:
		return PaymentMethodChosen{}, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, string(m))
	}
	return PaymentMethodChosen{CheckoutID: a.ID, Method: m, ChosenAt: now}, nil
}

// RecordPaymentCode accepts a rendered UPI code while one is pending.
func (a *CheckoutSession) RecordPaymentCode(paymentString, dataURL string) (PaymentCodeGenerated, error) {
	if a.PaymentMethod != PaymentUPI || a.CodeStatus != PaymentCodePending {
		return PaymentCodeGenerated{}, ErrInvalidTransition
	}
	return PaymentCodeGenerated{CheckoutID: a.ID, PaymentString: paymentString, DataURL: dataURL}, nil
}

// RecordPaymentCodeFailure marks a pending UPI code as failed.
func (a *CheckoutSession) RecordPaymentCodeFailure(reason string) (PaymentCodeFailedEvent, error) {
	if a.PaymentMethod != PaymentUPI || a.CodeStatus != PaymentCodePending {
		return PaymentCodeFailedEvent{}, ErrInvalidTransition
	}
	return PaymentCodeFailedEvent{CheckoutID: a.ID, Reason: reason}, nil
}

// BeginSubmission guards the "Proceed to Pay" action.
func (a *CheckoutSession) BeginSubmission(now time.Time) (SubmissionStarted, error) {
	switch a.State {
	case StateSubmitting:
		return SubmissionStarted{}, ErrSubmissionInFlight
	case StateReview:
		return SubmissionStarted{}, ErrNoPaymentMethod
	case StateAwaitingPaymentChoice:
	default:
		return SubmissionStarted{}, ErrInvalidTransition
	}
	if a.PaymentMethod == PaymentNone {
		return SubmissionStarted{}, ErrNoPaymentMethod
	}
	if a.PaymentMethod == PaymentWallet && !a.WalletSelectable() {
		return SubmissionStarted{}, ErrInsufficientBalance
	}
	if a.Phone == "" {
		return SubmissionStarted{}, ErrPhoneMissing
	}
	return SubmissionStarted{CheckoutID: a.ID, Method: a.PaymentMethod, Total: a.Total, StartedAt: now}, nil
}

// FailSubmission rolls an in-flight submission back to the payment step.
func (a *CheckoutSession) FailSubmission(message string, now time.Time) (SubmissionFailed, error) {
	if a.State != StateSubmitting {
		return SubmissionFailed{}, ErrInvalidTransition
	}
	return SubmissionFailed{CheckoutID: a.ID, Message: message, FailedAt: now}, nil
}

// CompleteSubmission records the gateway order of an in-flight submission.
func (a *CheckoutSession) CompleteSubmission(order PendingOrder, now time.Time) (GatewayOrderCreated, error) {
	if a.State != StateSubmitting {
		return GatewayOrderCreated{}, ErrInvalidTransition
	}
	return GatewayOrderCreated{
		CheckoutID:    a.ID,
		SessionID:     a.SessionID,
		OrderID:       order.OrderID,
		PaymentURL:    order.PaymentURL,
		GameSlug:      a.GameSlug,
		ItemSlug:      a.Item.ItemSlug,
		PaymentMethod: a.PaymentMethod,
		Total:         a.Total,
		CreatedAt:     now,
	}, nil
}

// Acknowledge records the shopper's return from the gateway.
func (a *CheckoutSession) Acknowledge(now time.Time) (PaymentAcknowledged, error) {
	if a.State != StateRedirectedExternal || a.Order == nil {
		return PaymentAcknowledged{}, ErrInvalidTransition
	}
	return PaymentAcknowledged{CheckoutID: a.ID, OrderID: a.Order.OrderID, AcknowledgedAt: now}, nil
}

// PaymentCode returns the UPI code data URL. It is only viewable once a
// gateway order exists for a UPI checkout.
func (a *CheckoutSession) PaymentCode() (string, error) {
	if a.PaymentMethod != PaymentUPI || a.Order == nil {
		return "", ErrPaymentCodeUnavailable
	}
	if a.State != StateRedirectedExternal && a.State != StateComplete {
		return "", ErrPaymentCodeUnavailable
	}
	if a.CodeStatus != PaymentCodeReady {
		return "", ErrPaymentCodeUnavailable
	}
	return a.CodeDataURL, nil
}

// OrderRequest builds the gateway order body for this checkout.
func (a *CheckoutSession) OrderRequest() OrderRequest {
	req := OrderRequest{
		GameSlug:      a.GameSlug,
		ItemSlug:      a.Item.ItemSlug,
		ItemName:      a.Item.ItemName,
		PlayerID:      a.PlayerID,
		ZoneID:        a.ZoneID,
		PaymentMethod: a.PaymentMethod,
		Price:         a.Total,
		Phone:         a.Phone,
		Currency:      Currency,
	}
	if a.Email != "" {
		email := a.Email
		req.Email = &email
	}
	if a.UserID != "" {
		userID := a.UserID
		req.UserID = &userID
	}
	return req
}
