package entity

// AccountListing is a game account offered on the IDs on sell page.
type AccountListing struct {
	ID               string     `json:"id"`
	Slug             string     `json:"slug"`
	Title            string     `json:"title"`
	Price            float64    `json:"price"`
	Heroes           int        `json:"heroes"`
	Skins            int        `json:"skins"`
	COA              int        `json:"coa"`
	DoubleDiamonds   []string   `json:"doubleDiamonds"`
	GlobalHeroTitles []string   `json:"globalHeroTitles"`
	Images           []string   `json:"images"`
	Rent             *RentTerms `json:"rent,omitempty"` // nil when the account is not for rent
}

// RentTerms is the rental offer of a listing.
type RentTerms struct {
	Price         float64 `json:"price"`
	DurationHours int     `json:"durationHours"`
}

// HasGlobalHero reports whether the account holds a global hero title.
func (l AccountListing) HasGlobalHero() bool {
	return len(l.GlobalHeroTitles) > 0
}
