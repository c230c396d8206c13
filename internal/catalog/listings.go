package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bluebuff/storefront/internal/entity"
)

var ErrUnknownListing = errors.New("unknown listing")

// ListingFilter is the state of the IDs on sell search bar and filter sheet.
type ListingFilter struct {
	Search     string
	RentOnly   bool
	GlobalOnly bool
}

// ActiveFilterCount counts the checked boxes of the filter sheet.
func (f ListingFilter) ActiveFilterCount() int {
	n := 0
	if f.RentOnly {
		n++
	}
	if f.GlobalOnly {
		n++
	}
	return n
}

// FilterListings keeps the listings whose title contains the search text,
// ignoring case, and that pass the checked filters. Order is preserved.
func FilterListings(listings []entity.AccountListing, f ListingFilter) []entity.AccountListing {
	query := strings.ToLower(f.Search)
	out := make([]entity.AccountListing, 0, len(listings))
	for _, l := range listings {
		if !strings.Contains(strings.ToLower(l.Title), query) {
			continue
		}
		if f.RentOnly && l.Rent == nil {
			continue
		}
		if f.GlobalOnly && !l.HasGlobalHero() {
			continue
		}
		out = append(out, l)
	}
	return out
}

// FindListing looks a listing up by slug.
func FindListing(listings []entity.AccountListing, slug string) (entity.AccountListing, error) {
	for _, l := range listings {
		if l.Slug == slug {
			return l, nil
		}
	}
	return entity.AccountListing{}, fmt.Errorf("%w: %s", ErrUnknownListing, slug)
}

// LoadListings reads the listings file. An empty path means no listings.
func LoadListings(path string) ([]entity.AccountListing, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read listings file %s: %w", path, err)
	}
	listings, err := ParseListings(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listings file %s: %w", path, err)
	}
	return listings, nil
}

// ParseListings decodes a YAML (or JSON) array of listings.
func ParseListings(data []byte) ([]entity.AccountListing, error) {
	var docs []listingDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(docs))
	listings := make([]entity.AccountListing, 0, len(docs))
	for i, d := range docs {
		l := d.toEntity()
		if l.Slug == "" || l.Title == "" {
			return nil, fmt.Errorf("listing %d: slug and title are required", i)
		}
		if seen[l.Slug] {
			return nil, fmt.Errorf("listing %d: duplicate slug %q", i, l.Slug)
		}
		seen[l.Slug] = true
		listings = append(listings, l)
	}
	return listings, nil
}

// countDoc accepts either a bare number or {total: n}.
type countDoc int

func (c *countDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var v int
		if err := n.Decode(&v); err != nil {
			return err
		}
		*c = countDoc(v)
		return nil
	}
	var obj struct {
		Total int `yaml:"total"`
	}
	if err := n.Decode(&obj); err != nil {
		return err
	}
	*c = countDoc(obj.Total)
	return nil
}

type listingDoc struct {
	ID     string   `yaml:"id"`
	Slug   string   `yaml:"slug"`
	Title  string   `yaml:"title"`
	Price  float64  `yaml:"price"`
	Heroes countDoc `yaml:"heroes"`
	Skins  countDoc `yaml:"skins"`
	Rent   *struct {
		Available     bool    `yaml:"available"`
		Price         float64 `yaml:"price"`
		DurationHours int     `yaml:"durationHours"`
	} `yaml:"rent"`
	HeroTitles struct {
		Global []string `yaml:"global"`
	} `yaml:"heroTitles"`
	Diamonds struct {
		DoubleDiamondAvailable []string `yaml:"doubleDiamondAvailable"`
	} `yaml:"diamonds"`
	Currencies struct {
		COA int `yaml:"coa"`
	} `yaml:"currencies"`
	Media struct {
		Images []string `yaml:"images"`
	} `yaml:"media"`
}

func (d listingDoc) toEntity() entity.AccountListing {
	l := entity.AccountListing{
		ID:               d.ID,
		Slug:             d.Slug,
		Title:            d.Title,
		Price:            d.Price,
		Heroes:           int(d.Heroes),
		Skins:            int(d.Skins),
		COA:              d.Currencies.COA,
		DoubleDiamonds:   d.Diamonds.DoubleDiamondAvailable,
		GlobalHeroTitles: d.HeroTitles.Global,
		Images:           d.Media.Images,
	}
	if d.Rent != nil && d.Rent.Available {
		l.Rent = &entity.RentTerms{Price: d.Rent.Price, DurationHours: d.Rent.DurationHours}
	}
	return l
}
