package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bluebuff/storefront/internal/catalog"
	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/pricing"
	"github.com/bluebuff/storefront/internal/session"
)

// GameCard is a listing entry with its stock flag.
type GameCard struct {
	entity.Game
	OutOfStock bool `json:"outOfStock"`
}

type CategoryView struct {
	Title string     `json:"title"`
	Games []GameCard `json:"games"`
}

// BrowseView is the games page after filtering.
type BrowseView struct {
	Categories    []CategoryView `json:"categories"`
	Games         []GameCard     `json:"games"`
	ActiveFilters int            `json:"activeFilters"`
}

// ItemView is a package card.
type ItemView struct {
	entity.CatalogItem
	DiscountPercent *int   `json:"discountPercent"`
	Badge           string `json:"badge,omitempty"`
	Price           string `json:"price"`
	Active          bool   `json:"active"`
}

// GameView is the game page: every package sorted by price, the active
// one, the slider stops and the requested grid page.
type GameView struct {
	entity.Game
	State       catalog.LoadState `json:"state"`
	View        catalog.ViewMode  `json:"view"`
	Items       []ItemView        `json:"items"`
	Active      *ItemView         `json:"active,omitempty"`
	PriceLevels []string          `json:"priceLevels"`
	Page        catalog.PageInfo  `json:"page"`
}

// MeView is the header and dashboard profile.
type MeView struct {
	Profile  entity.UserProfile `json:"profile"`
	Tier     entity.TierView    `json:"tier"`
	DaysLeft *int               `json:"daysLeft,omitempty"`
}

// OrdersPage is one dashboard page of orders.
type OrdersPage struct {
	Orders  []entity.Order `json:"orders"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	HasPrev bool           `json:"hasPrev"`
	HasNext bool           `json:"hasNext"`
}

// StorefrontService serves the read-only pages.
type StorefrontService struct {
	api          TopUpAPI
	browser      *catalog.Browser
	ordersLimit  int
	gridPageSize int
	now          func() time.Time
}

func NewStorefrontService(api TopUpAPI, browser *catalog.Browser, ordersLimit, gridPageSize int) *StorefrontService {
	return &StorefrontService{
		api:          api,
		browser:      browser,
		ordersLimit:  ordersLimit,
		gridPageSize: gridPageSize,
		now:          time.Now,
	}
}

func (s *StorefrontService) Banners(ctx context.Context) ([]entity.Banner, error) {
	banners, err := s.api.Banners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load banners: %w", err)
	}
	return banners, nil
}

// Browse filters and sorts the game listing.
func (s *StorefrontService) Browse(ctx context.Context, f catalog.Filter) (*BrowseView, error) {
	listing, err := s.api.Games(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	view := &BrowseView{
		Categories:    []CategoryView{},
		Games:         s.cards(s.browser.Apply(listing.Games, f)),
		ActiveFilters: f.ActiveFilterCount(),
	}
	for _, c := range s.browser.Categories(listing.Categories, f) {
		view.Categories = append(view.Categories, CategoryView{Title: c.Title, Games: s.cards(c.Games)})
	}
	return view, nil
}

func (s *StorefrontService) cards(games []entity.Game) []GameCard {
	cards := make([]GameCard, 0, len(games))
	for _, g := range games {
		cards = append(cards, GameCard{Game: g, OutOfStock: s.browser.IsOutOfStock(g.GameName)})
	}
	return cards
}

// Game builds the game page. itemSlug, when set, selects that package
// instead of the cheapest.
func (s *StorefrontService) Game(ctx context.Context, sess *session.Session, slug, itemSlug string, view catalog.ViewMode, page int) (*GameView, error) {
	token, err := sess.Token(ctx)
	if err != nil {
		return nil, err
	}
	game, err := s.api.Game(ctx, slug, token)
	if err != nil {
		return nil, notFoundOr(err, ErrGameNotFound)
	}

	selection := catalog.NewSelection()
	selection.Load(game.Items)
	if itemSlug != "" {
		if err := selection.Select(itemSlug); err != nil {
			return nil, err
		}
	}

	active, hasActive := selection.Active()
	gv := &GameView{
		Game:        game.Game,
		State:       selection.State(),
		View:        view,
		Items:       []ItemView{},
		PriceLevels: []string{},
	}

	var visible []entity.CatalogItem
	if view == catalog.ViewSlider {
		visible = selection.Items()
		_, gv.Page = selection.Page(1, 0)
		for _, l := range selection.PriceLevels() {
			gv.PriceLevels = append(gv.PriceLevels, l.ItemSlug)
		}
	} else {
		visible, gv.Page = selection.Page(page, s.gridPageSize)
	}
	for _, item := range visible {
		gv.Items = append(gv.Items, itemView(item, hasActive && item.ItemSlug == active.ItemSlug))
	}
	if hasActive {
		v := itemView(active, true)
		gv.Active = &v
	}
	return gv, nil
}

func itemView(item entity.CatalogItem, active bool) ItemView {
	pct := pricing.DiscountPercent(item.SellingPrice, item.DummyPrice)
	return ItemView{
		CatalogItem:     item,
		DiscountPercent: pct,
		Badge:           pricing.Badge(pct),
		Price:           pricing.Rupees(item.SellingPrice),
		Active:          active,
	}
}

// Me returns the logged-in profile with its tier. A token the API rejects
// is removed from the session.
func (s *StorefrontService) Me(ctx context.Context, sess *session.Session) (*MeView, error) {
	token, err := sess.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	profile, err := s.api.Me(ctx, token)
	if err != nil {
		if isRejected(err) {
			slog.Info("Service: Clearing rejected token", "session", sess.ID())
			if clearErr := sess.ClearToken(ctx); clearErr != nil {
				return nil, clearErr
			}
			return nil, fmt.Errorf("%w: %v", ErrNotLoggedIn, err)
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	role, err := entity.ParseRole(profile.UserType)
	if err != nil {
		return nil, err
	}
	tier, err := entity.ResolveTier(role)
	if err != nil {
		return nil, err
	}

	view := &MeView{Profile: *profile, Tier: tier}
	if tier.ShowsExpiry && profile.MembershipExpiresAt != nil {
		days := entity.DaysLeft(*profile.MembershipExpiresAt, s.now())
		view.DaysLeft = &days
	}
	return view, nil
}

// Orders returns one page of the shopper's orders. Pages start at 1.
func (s *StorefrontService) Orders(ctx context.Context, sess *session.Session, page int, search string) (*OrdersPage, error) {
	token, err := sess.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	if page < 1 {
		page = 1
	}

	orders, err := s.api.UserOrders(ctx, token, page, s.ordersLimit, search)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return &OrdersPage{
		Orders:  orders,
		Page:    page,
		Limit:   s.ordersLimit,
		HasPrev: page > 1,
		HasNext: len(orders) == s.ordersLimit,
	}, nil
}
