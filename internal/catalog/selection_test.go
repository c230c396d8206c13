package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluebuff/storefront/internal/entity"
)

func items(prices ...float64) []entity.CatalogItem {
	out := make([]entity.CatalogItem, len(prices))
	for i, p := range prices {
		out[i] = entity.CatalogItem{ItemSlug: fmt.Sprintf("item-%v", p), ItemName: fmt.Sprintf("%v Diamonds", p), SellingPrice: p}
	}
	return out
}

func TestSelection_NotLoadedIsDistinctFromEmpty(t *testing.T) {
	s := NewSelection()
	assert.Equal(t, NotLoaded, s.State())
	_, ok := s.Active()
	assert.False(t, ok)
	assert.ErrorIs(t, s.Select("x"), ErrNotLoaded)

	s.Load(nil)
	assert.Equal(t, Empty, s.State())
	_, ok = s.Active()
	assert.False(t, ok)
	assert.Nil(t, s.PriceLevels())
}

func TestSelection_LoadActivatesCheapest(t *testing.T) {
	s := NewSelection()
	s.Load(items(300, 50, 120, 50.5))

	assert.Equal(t, Ready, s.State())
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, 50.0, active.SellingPrice)

	prices := []float64{}
	for _, it := range s.Items() {
		prices = append(prices, it.SellingPrice)
	}
	assert.Equal(t, []float64{50, 50.5, 120, 300}, prices)
}

func TestSelection_Select(t *testing.T) {
	s := NewSelection()
	s.Load(items(10, 20, 30))

	require.NoError(t, s.Select("item-30"))
	active, _ := s.Active()
	assert.Equal(t, "item-30", active.ItemSlug)

	err := s.Select("missing")
	assert.ErrorIs(t, err, ErrUnknownItem)
	active, _ = s.Active()
	assert.Equal(t, "item-30", active.ItemSlug, "failed select keeps focus")
}

func TestSelection_PriceLevels(t *testing.T) {
	s := NewSelection()
	s.Load(items(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))

	var got []float64
	for _, it := range s.PriceLevels() {
		got = append(got, it.SellingPrice)
	}
	assert.Equal(t, []float64{1, 4, 7, 10}, got)

	s.Load(items(1, 2))
	got = nil
	for _, it := range s.PriceLevels() {
		got = append(got, it.SellingPrice)
	}
	assert.Equal(t, []float64{1, 2}, got)
}

func TestSelection_Page(t *testing.T) {
	s := NewSelection()
	s.Load(items(1, 2, 3, 4, 5))

	page, info := s.Page(2, 2)
	assert.Len(t, page, 2)
	assert.Equal(t, 3.0, page[0].SellingPrice)
	assert.Equal(t, PageInfo{Page: 2, PageSize: 2, TotalPages: 3, TotalItems: 5}, info)

	page, info = s.Page(9, 2)
	assert.Len(t, page, 1)
	assert.Equal(t, 3, info.Page)

	page, info = s.Page(0, 0)
	assert.Len(t, page, 5)
	assert.Equal(t, 1, info.TotalPages)
}

func TestParseViewMode(t *testing.T) {
	m, err := ParseViewMode("")
	require.NoError(t, err)
	assert.Equal(t, ViewGrid, m)

	m, err = ParseViewMode("slider")
	require.NoError(t, err)
	assert.Equal(t, ViewSlider, m)

	_, err = ParseViewMode("carousel")
	assert.Error(t, err)
}
