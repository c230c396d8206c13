// Package catalog keeps the package selection of a game page and the
// filtering of the game listing.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bluebuff/storefront/internal/entity"
)

var (
	ErrNotLoaded   = errors.New("catalog not loaded")
	ErrUnknownItem = errors.New("unknown catalog item")
)

// LoadState tells "not yet loaded" apart from "loaded but empty".
type LoadState string

const (
	NotLoaded LoadState = "not_loaded"
	Empty     LoadState = "empty"
	Ready     LoadState = "ready"
)

// ViewMode is how the packages of a game are presented.
type ViewMode string

const (
	ViewGrid   ViewMode = "grid"
	ViewSlider ViewMode = "slider"
)

// ParseViewMode defaults to the grid.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case "", ViewGrid:
		return ViewGrid, nil
	case ViewSlider:
		return ViewSlider, nil
	}
	return ViewGrid, fmt.Errorf("unknown view mode %q", s)
}

// Selection holds the price-sorted packages of a game and the active one.
type Selection struct {
	items  []entity.CatalogItem
	active int
	loaded bool
}

// NewSelection returns a selection in the NotLoaded state.
func NewSelection() *Selection {
	return &Selection{active: -1}
}

// Load sorts the items by ascending selling price and activates the cheapest.
func (s *Selection) Load(items []entity.CatalogItem) {
	sorted := make([]entity.CatalogItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SellingPrice < sorted[j].SellingPrice
	})
	s.items = sorted
	s.loaded = true
	s.active = -1
	if len(sorted) > 0 {
		s.active = 0
	}
}

func (s *Selection) State() LoadState {
	switch {
	case !s.loaded:
		return NotLoaded
	case len(s.items) == 0:
		return Empty
	default:
		return Ready
	}
}

// Items returns the sorted packages.
func (s *Selection) Items() []entity.CatalogItem {
	return s.items
}

// Active returns the focused package, if any.
func (s *Selection) Active() (entity.CatalogItem, bool) {
	if s.active < 0 || s.active >= len(s.items) {
		return entity.CatalogItem{}, false
	}
	return s.items[s.active], true
}

// Select focuses the package with the given slug.
func (s *Selection) Select(slug string) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	idx := s.indexOf(slug)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownItem, slug)
	}
	s.active = idx
	return nil
}

// Find returns the package with the given slug without changing focus.
func (s *Selection) Find(slug string) (entity.CatalogItem, bool) {
	idx := s.indexOf(slug)
	if idx < 0 {
		return entity.CatalogItem{}, false
	}
	return s.items[idx], true
}

func (s *Selection) indexOf(slug string) int {
	for i, item := range s.items {
		if item.ItemSlug == slug {
			return i
		}
	}
	return -1
}

// PriceLevels are the slider's quick-jump stops: cheapest, ~30%, ~60% and
// the most expensive package, without repeats.
func (s *Selection) PriceLevels() []entity.CatalogItem {
	n := len(s.items)
	if n == 0 {
		return nil
	}
	idx := []int{0, n * 3 / 10, n * 6 / 10, n - 1}
	seen := make(map[string]bool, len(idx))
	levels := make([]entity.CatalogItem, 0, len(idx))
	for _, i := range idx {
		item := s.items[i]
		if seen[item.ItemSlug] {
			continue
		}
		seen[item.ItemSlug] = true
		levels = append(levels, item)
	}
	return levels
}

// PageInfo describes one page of the grid.
type PageInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
}

// Page returns the 1-based page of the grid. Out of range pages are clamped.
func (s *Selection) Page(page, size int) ([]entity.CatalogItem, PageInfo) {
	n := len(s.items)
	if size <= 0 {
		size = n
	}
	info := PageInfo{PageSize: size, TotalItems: n}
	if n == 0 {
		info.Page = 1
		return nil, info
	}
	info.TotalPages = (n + size - 1) / size
	if page < 1 {
		page = 1
	}
	if page > info.TotalPages {
		page = info.TotalPages
	}
	info.Page = page
	start := (page - 1) * size
	end := start + size
	if end > n {
		end = n
	}
	return s.items[start:end], info
}
