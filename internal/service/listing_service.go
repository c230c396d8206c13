package service

import (
	"fmt"

	"github.com/bluebuff/storefront/internal/catalog"
	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/pricing"
)

// ListingCard is one account on the IDs on sell page.
type ListingCard struct {
	entity.AccountListing
	PriceLabel string `json:"priceLabel"`
	RentLabel  string `json:"rentLabel,omitempty"`
	GlobalHero bool   `json:"globalHero"`
	Image      string `json:"image,omitempty"`
}

// ListingsView is the filtered IDs on sell page.
type ListingsView struct {
	Listings      []ListingCard `json:"listings"`
	ActiveFilters int           `json:"activeFilters"`
}

// ListingService serves the configured account listings.
type ListingService struct {
	listings []entity.AccountListing
}

func NewListingService(listings []entity.AccountListing) *ListingService {
	return &ListingService{listings: listings}
}

func (s *ListingService) Browse(f catalog.ListingFilter) ListingsView {
	matched := catalog.FilterListings(s.listings, f)
	view := ListingsView{Listings: make([]ListingCard, 0, len(matched)), ActiveFilters: f.ActiveFilterCount()}
	for _, l := range matched {
		view.Listings = append(view.Listings, listingCard(l))
	}
	return view
}

func (s *ListingService) Listing(slug string) (*ListingCard, error) {
	l, err := catalog.FindListing(s.listings, slug)
	if err != nil {
		return nil, err
	}
	card := listingCard(l)
	return &card, nil
}

func listingCard(l entity.AccountListing) ListingCard {
	card := ListingCard{
		AccountListing: l,
		PriceLabel:     pricing.Rupees(l.Price),
		GlobalHero:     l.HasGlobalHero(),
	}
	if l.Rent != nil {
		card.RentLabel = fmt.Sprintf("Rent %s / %dh", pricing.Rupees(l.Rent.Price), l.Rent.DurationHours)
	}
	if len(l.Images) > 0 {
		card.Image = l.Images[0]
	}
	return card
}
