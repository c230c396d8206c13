// Package pricing holds the price arithmetic shared by the catalog and
// checkout views.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountPercent returns the rounded percentage by which sellingPrice
// undercuts dummyPrice, or nil when there is no meaningful discount.
func DiscountPercent(sellingPrice float64, dummyPrice *float64) *int {
	if dummyPrice == nil || *dummyPrice == 0 || *dummyPrice <= sellingPrice {
		return nil
	}
	dummy := decimal.NewFromFloat(*dummyPrice)
	pct := dummy.Sub(decimal.NewFromFloat(sellingPrice)).Div(dummy).Mul(hundred)
	p := int(pct.Round(0).IntPart())
	return &p
}

// Badge renders a discount percentage as shown on package cards.
func Badge(percent *int) string {
	if percent == nil {
		return ""
	}
	return fmt.Sprintf("%d%% OFF", *percent)
}

// Breakdown is the order summary of a checkout.
type Breakdown struct {
	Base     decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Quote computes Total = Base - Discount. The discount is clamped to
// [0, Base] so the total never goes negative.
func Quote(sellingPrice, discount float64) Breakdown {
	base := decimal.NewFromFloat(sellingPrice)
	d := decimal.NewFromFloat(discount)
	if d.IsNegative() {
		d = decimal.Zero
	}
	if d.GreaterThan(base) {
		d = base
	}
	return Breakdown{Base: base, Discount: d, Total: base.Sub(d)}
}

// TotalFloat is Total as sent to the gateway.
func (b Breakdown) TotalFloat() float64 {
	return b.Total.InexactFloat64()
}

// Covers reports whether balance pays for the total.
func (b Breakdown) Covers(balance float64) bool {
	return decimal.NewFromFloat(balance).GreaterThanOrEqual(b.Total)
}

// FormatAmount prints an amount without trailing zeros ("500", "499.5").
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// Rupees prints an amount the way the storefront shows it ("₹500").
func Rupees(v float64) string {
	return "₹" + FormatAmount(v)
}

// DiscountTable holds flat discounts keyed by "gameSlug/itemSlug". It is
// the only source of a checkout's discount.
type DiscountTable map[string]float64

// For returns the discount of one item, zero when none is configured.
func (t DiscountTable) For(gameSlug, itemSlug string) float64 {
	return t[gameSlug+"/"+itemSlug]
}
