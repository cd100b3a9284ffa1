package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PriceRange is an inclusive price window.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// DefaultPriceRange is the window the browse page starts with and resets to.
func DefaultPriceRange() PriceRange {
	return PriceRange{
		Min: decimal.Zero,
		Max: decimal.NewFromInt(50),
	}
}

// Contains reports whether price lies within [Min, Max]. Bounds are taken
// literally, so an inverted range contains nothing.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

// FilterState holds the facet selections of one browsing session.
// Empty Genres or Conditions place no restriction on that facet.
type FilterState struct {
	Price      PriceRange  `json:"price"`
	Genres     []Genre     `json:"genres"`
	Conditions []Condition `json:"conditions"`
}

func DefaultFilterState() FilterState {
	return FilterState{
		Price:      DefaultPriceRange(),
		Genres:     []Genre{},
		Conditions: []Condition{},
	}
}

type SortKey string

func (s SortKey) String() string {
	return string(s)
}

const (
	SortFeatured  SortKey = "featured"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
)

var SortKeys = []SortKey{
	SortFeatured,
	SortPriceLow,
	SortPriceHigh,
	SortRating,
}

// ParseSortKey maps a wire name to a SortKey. Anything unrecognised is
// treated as featured.
func ParseSortKey(s string) SortKey {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case SortPriceLow, SortPriceHigh, SortRating:
		return key
	default:
		return SortFeatured
	}
}

func (s SortKey) Label() string {
	switch s {
	case SortPriceLow:
		return "Price: Low to High"
	case SortPriceHigh:
		return "Price: High to Low"
	case SortRating:
		return "Highest Rated"
	default:
		return "Featured"
	}
}

type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

func ParseViewMode(s string) ViewMode {
	if ViewMode(strings.ToLower(strings.TrimSpace(s))) == ViewList {
		return ViewList
	}
	return ViewGrid
}
