package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestDiscountPercent_NoDiscount(t *testing.T) {
	tests := []struct {
		name    string
		selling float64
		dummy   *float64
	}{
		{"nil dummy", 100, nil},
		{"zero dummy", 100, ptr(0)},
		{"dummy equals selling", 100, ptr(100)},
		{"dummy below selling", 100, ptr(80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, DiscountPercent(tt.selling, tt.dummy))
		})
	}
}

func TestDiscountPercent_Rounds(t *testing.T) {
	tests := []struct {
		selling, dummy float64
		want           int
	}{
		{100, 150, 33},
		{500, 700, 29},
		{50, 100, 50},
		{99, 200, 51}, // 50.5 rounds up
	}
	for _, tt := range tests {
		got := DiscountPercent(tt.selling, ptr(tt.dummy))
		require.NotNil(t, got)
		assert.Equal(t, tt.want, *got)
	}
}

func TestBadge(t *testing.T) {
	assert.Equal(t, "", Badge(nil))
	assert.Equal(t, "29% OFF", Badge(DiscountPercent(500, ptr(700))))
}

func TestQuote(t *testing.T) {
	q := Quote(500, 0)
	assert.Equal(t, "500", q.Total.String())
	assert.Equal(t, 500.0, q.TotalFloat())

	q = Quote(500, 20)
	assert.Equal(t, "480", q.Total.String())

	q = Quote(500, 900)
	assert.True(t, q.Total.IsZero())
	assert.Equal(t, "500", q.Discount.String())

	q = Quote(500, -5)
	assert.Equal(t, "500", q.Total.String())
}

func TestBreakdown_Covers(t *testing.T) {
	q := Quote(500, 0)
	assert.False(t, q.Covers(0))
	assert.False(t, q.Covers(499.99))
	assert.True(t, q.Covers(500))
	assert.True(t, q.Covers(700))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "500", FormatAmount(500))
	assert.Equal(t, "499.5", FormatAmount(499.5))
	assert.Equal(t, "₹89.99", Rupees(89.99))
}

func TestDiscountTable_For(t *testing.T) {
	table := DiscountTable{"mlbb/d-500": 25}
	assert.Equal(t, 25.0, table.For("mlbb", "d-500"))
	assert.Zero(t, table.For("mlbb", "d-86"))

	var none DiscountTable
	assert.Zero(t, none.For("mlbb", "d-500"))
}
