package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bluebuff/storefront/internal/entity"
)

// SortOrder orders the game listing by name.
type SortOrder string

const (
	SortAZ SortOrder = "az"
	SortZA SortOrder = "za"
)

// ParseSortOrder defaults to A-Z.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortAZ:
		return SortAZ, nil
	case SortZA:
		return SortZA, nil
	}
	return SortAZ, fmt.Errorf("unknown sort order %q", s)
}

// Filter is the state of the listing's search bar and filter sheet.
type Filter struct {
	Search         string
	Sort           SortOrder
	HideOutOfStock bool
}

// ActiveFilterCount is the number shown on the filter button. Search is not
// counted.
func (f Filter) ActiveFilterCount() int {
	n := 0
	if f.Sort != "" && f.Sort != SortAZ {
		n++
	}
	if f.HideOutOfStock {
		n++
	}
	return n
}

// Browser applies listing filters. Games named in the out-of-stock list
// stay visible but disabled unless HideOutOfStock is set.
type Browser struct {
	outOfStock map[string]bool
}

func NewBrowser(outOfStock []string) *Browser {
	set := make(map[string]bool, len(outOfStock))
	for _, name := range outOfStock {
		set[name] = true
	}
	return &Browser{outOfStock: set}
}

func (b *Browser) IsOutOfStock(gameName string) bool {
	return b.outOfStock[gameName]
}

// Apply returns a filtered, sorted copy of games.
func (b *Browser) Apply(games []entity.Game, f Filter) []entity.Game {
	query := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]entity.Game, 0, len(games))
	for _, g := range games {
		if query != "" && !strings.Contains(strings.ToLower(g.GameName), query) {
			continue
		}
		if f.HideOutOfStock && b.IsOutOfStock(g.GameName) {
			continue
		}
		out = append(out, g)
	}

	c := collate.New(language.English, collate.IgnoreCase)
	c.Sort(byName{games: out})
	if f.Sort == SortZA {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Categories applies the filter inside every category and drops the ones
// left empty.
func (b *Browser) Categories(categories []entity.Category, f Filter) []entity.Category {
	out := make([]entity.Category, 0, len(categories))
	for _, cat := range categories {
		games := b.Apply(cat.Games, f)
		if len(games) == 0 {
			continue
		}
		out = append(out, entity.Category{Title: cat.Title, Games: games})
	}
	return out
}

// byName adapts a game slice to collate.Lister.
type byName struct {
	games []entity.Game
}

func (l byName) Len() int           { return len(l.games) }
func (l byName) Swap(i, j int)      { l.games[i], l.games[j] = l.games[j], l.games[i] }
func (l byName) Bytes(i int) []byte { return []byte(l.games[i].GameName) }
