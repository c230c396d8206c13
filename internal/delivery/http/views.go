package http

import (
	"time"

	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/pricing"
)

type paymentCodeView struct {
	Status        entity.PaymentCodeStatus `json:"status"`
	PaymentString string                   `json:"paymentString,omitempty"`
	Error         string                   `json:"error,omitempty"`
	ImageURL      string                   `json:"imageUrl,omitempty"`
}

// checkoutView is the review and payment step as the buy page renders it.
type checkoutView struct {
	ID               string               `json:"id"`
	State            entity.CheckoutState `json:"state"`
	GameSlug         string               `json:"gameSlug"`
	Item             entity.CatalogItem   `json:"item"`
	PlayerID         string               `json:"playerId"`
	ZoneID           string               `json:"zoneId"`
	UserName         string               `json:"userName,omitempty"`
	Email            string               `json:"email,omitempty"`
	Phone            string               `json:"phone"`
	Base             string               `json:"base"`
	Discount         string               `json:"discount"`
	Total            string               `json:"total"`
	TotalAmount      float64              `json:"totalAmount"`
	WalletBalance    float64              `json:"walletBalance"`
	WalletSelectable bool                 `json:"walletSelectable"`
	WalletNotice     string               `json:"walletNotice,omitempty"`
	PaymentMethod    entity.PaymentMethod `json:"paymentMethod"`
	PaymentCode      *paymentCodeView     `json:"paymentCode,omitempty"`
	CanProceed       bool                 `json:"canProceed"`
	Order            *entity.PendingOrder `json:"order,omitempty"`
	LastError        string               `json:"lastError,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
}

func newCheckoutView(agg *entity.CheckoutSession) checkoutView {
	quote := pricing.Quote(agg.Item.SellingPrice, agg.Discount)
	v := checkoutView{
		ID:               agg.ID,
		State:            agg.State,
		GameSlug:         agg.GameSlug,
		Item:             agg.Item,
		PlayerID:         agg.PlayerID,
		ZoneID:           agg.ZoneID,
		UserName:         agg.UserName,
		Email:            agg.Email,
		Phone:            agg.Phone,
		Base:             pricing.Rupees(quote.Base.InexactFloat64()),
		Discount:         pricing.Rupees(quote.Discount.InexactFloat64()),
		Total:            pricing.Rupees(agg.Total),
		TotalAmount:      agg.Total,
		WalletBalance:    agg.WalletBalance,
		WalletSelectable: agg.WalletSelectable(),
		PaymentMethod:    agg.PaymentMethod,
		CanProceed:       agg.CanProceed(),
		Order:            agg.Order,
		LastError:        agg.LastError,
		CreatedAt:        agg.CreatedAt,
	}
	if !v.WalletSelectable {
		v.WalletNotice = "Insufficient balance (" + pricing.Rupees(agg.Total) + " required)"
	}
	if agg.PaymentMethod == entity.PaymentUPI {
		v.PaymentCode = &paymentCodeView{
			Status:        agg.CodeStatus,
			PaymentString: agg.PaymentString,
			Error:         agg.CodeError,
		}
		if _, err := agg.PaymentCode(); err == nil {
			v.PaymentCode.ImageURL = "/api/storefront/checkout/" + agg.ID + "/qr"
		}
	}
	return v
}
