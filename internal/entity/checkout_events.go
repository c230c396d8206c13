package entity

import "time"

// --- Commands ---

// StartCheckout opens a checkout for one catalog item.
type StartCheckout struct {
	CheckoutID    string
	SessionID     string
	GameSlug      string
	Item          *CatalogItem
	PlayerID      string
	ZoneID        string
	UserName      string
	Email         string
	Phone         string
	UserID        string
	WalletBalance float64
	Discount      float64
}

// --- Events ---

// CheckoutStarted is emitted when the shopper enters the review step.
type CheckoutStarted struct {
	CheckoutID    string      `json:"checkout_id"`
	SessionID     string      `json:"session_id"`
	GameSlug      string      `json:"game_slug"`
	Item          CatalogItem `json:"item"`
	PlayerID      string      `json:"player_id"`
	ZoneID        string      `json:"zone_id"`
	UserName      string      `json:"user_name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	UserID        string      `json:"user_id"`
	WalletBalance float64     `json:"wallet_balance"`
	Discount      float64     `json:"discount"`
	Total         float64     `json:"total"`
	StartedAt     time.Time   `json:"started_at"`
}

func (e CheckoutStarted) EventType() string { return "CheckoutStarted" }

// PaymentMethodChosen is emitted when a payment method passes its checks.
type PaymentMethodChosen struct {
	CheckoutID string        `json:"checkout_id"`
	Method     PaymentMethod `json:"method"`
	ChosenAt   time.Time     `json:"chosen_at"`
}

func (e PaymentMethodChosen) EventType() string { return "PaymentMethodChosen" }

// PaymentCodeGenerated carries the scannable UPI code for the checkout total.
type PaymentCodeGenerated struct {
	CheckoutID    string `json:"checkout_id"`
	PaymentString string `json:"payment_string"`
	DataURL       string `json:"data_url"`
}

func (e PaymentCodeGenerated) EventType() string { return "PaymentCodeGenerated" }

// PaymentCodeFailedEvent records a failed QR rendering. Choosing UPI again retries.
type PaymentCodeFailedEvent struct {
	CheckoutID string `json:"checkout_id"`
	Reason     string `json:"reason"`
}

func (e PaymentCodeFailedEvent) EventType() string { return "PaymentCodeFailed" }

// SubmissionStarted is emitted before the gateway order is requested.
type SubmissionStarted struct {
	CheckoutID string        `json:"checkout_id"`
	Method     PaymentMethod `json:"method"`
	Total      float64       `json:"total"`
	StartedAt  time.Time     `json:"started_at"`
}

func (e SubmissionStarted) EventType() string { return "SubmissionStarted" }

// SubmissionFailed rolls the checkout back to the payment step.
type SubmissionFailed struct {
	CheckoutID string    `json:"checkout_id"`
	Message    string    `json:"message"`
	FailedAt   time.Time `json:"failed_at"`
}

func (e SubmissionFailed) EventType() string { return "SubmissionFailed" }

// GatewayOrderCreated is emitted once the gateway accepted the order and the
// pending order marker was stored.
type GatewayOrderCreated struct {
	CheckoutID    string        `json:"checkout_id"`
	SessionID     string        `json:"session_id"`
	OrderID       string        `json:"order_id"`
	PaymentURL    string        `json:"payment_url"`
	GameSlug      string        `json:"game_slug"`
	ItemSlug      string        `json:"item_slug"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Total         float64       `json:"total"`
	CreatedAt     time.Time     `json:"created_at"`
}

func (e GatewayOrderCreated) EventType() string { return "GatewayOrderCreated" }

// PaymentAcknowledged is the shopper's "I Have Paid". It is not a payment
// confirmation.
type PaymentAcknowledged struct {
	CheckoutID     string    `json:"checkout_id"`
	OrderID        string    `json:"order_id"`
	AcknowledgedAt time.Time `json:"acknowledged_at"`
}

func (e PaymentAcknowledged) EventType() string { return "PaymentAcknowledged" }
