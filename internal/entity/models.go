package entity

import (
	"fmt"
	"time"
)

// Currency is the only currency the top-up gateway accepts.
const Currency = "INR"

// CatalogItem is a purchasable denomination of a game.
type CatalogItem struct {
	ItemSlug     string   `json:"itemSlug"`
	ItemName     string   `json:"itemName"`
	SellingPrice float64  `json:"sellingPrice"`
	DummyPrice   *float64 `json:"dummyPrice"` // list price, nil when the item has none
	ItemImage    string   `json:"itemImage,omitempty"`
}

// GameTag is the coloured label shown on a game card.
type GameTag struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Background string `json:"background"`
}

// Game is an entry of the game listing.
type Game struct {
	GameSlug  string   `json:"gameSlug"`
	GameName  string   `json:"gameName"`
	GameFrom  string   `json:"gameFrom"`
	GameImage string   `json:"gameImage,omitempty"`
	Tag       *GameTag `json:"tag,omitempty"`
}

// GameDetail is a game together with its catalog.
type GameDetail struct {
	Game
	Items []CatalogItem `json:"items"`
}

// Category groups games under a title on the listing page.
type Category struct {
	Title string `json:"title"`
	Games []Game `json:"games"`
}

// Banner is a home page carousel slide.
type Banner struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// UserProfile is the account returned by the auth endpoint.
type UserProfile struct {
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Wallet              float64    `json:"wallet"`
	OrderCount          int        `json:"orderCount"`
	UserType            string     `json:"userType"`
	MembershipExpiresAt *time.Time `json:"membershipExpiresAt,omitempty"`
}

// Order is a past top-up listed on the dashboard.
type Order struct {
	OrderID       string    `json:"orderId"`
	GameSlug      string    `json:"gameSlug"`
	ItemSlug      string    `json:"itemSlug"`
	ItemName      string    `json:"itemName"`
	PlayerID      string    `json:"playerId"`
	ZoneID        string    `json:"zoneId"`
	PaymentMethod string    `json:"paymentMethod"`
	Price         float64   `json:"price"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PaymentMethod is how the shopper pays for a checkout.
type PaymentMethod string

const (
	PaymentNone   PaymentMethod = ""
	PaymentWallet PaymentMethod = "wallet"
	PaymentUPI    PaymentMethod = "upi"
)

// ParsePaymentMethod accepts only the methods the gateway supports.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case PaymentWallet, PaymentUPI:
		return m, nil
	default:
		return PaymentNone, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, s)
	}
}

// OrderRequest is the body of a gateway order creation call.
type OrderRequest struct {
	GameSlug      string        `json:"gameSlug"`
	ItemSlug      string        `json:"itemSlug"`
	ItemName      string        `json:"itemName"`
	PlayerID      string        `json:"playerId"`
	ZoneID        string        `json:"zoneId"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Price         float64       `json:"price"`
	Email         *string       `json:"email"`
	Phone         string        `json:"phone"`
	UserID        *string       `json:"userId"`
	Currency      string        `json:"currency"`
}

// PendingOrder is what the gateway hands back for a created order.
type PendingOrder struct {
	OrderID    string `json:"orderId"`
	PaymentURL string `json:"paymentUrl"`
}

// GatewayOrder is the read model row kept for every order handed to the gateway.
type GatewayOrder struct {
	OrderID       string        `json:"orderId"`
	CheckoutID    string        `json:"checkoutId"`
	SessionID     string        `json:"-"`
	GameSlug      string        `json:"gameSlug"`
	ItemSlug      string        `json:"itemSlug"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Total         float64       `json:"total"`
	Status        string        `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// GatewayOrder statuses.
const (
	GatewayOrderRedirected   = "redirected"
	GatewayOrderAcknowledged = "acknowledged"
)
