package catalog

import (
	"slices"

	"bookmarket/api/internal/domain"
)

// ToggleGenre adds genre to the selection if absent and removes it if
// present. Applying it twice gives back the original selection.
func ToggleGenre(state domain.FilterState, genre domain.Genre) domain.FilterState {
	next := clone(state)
	next.Genres = toggle(next.Genres, genre)
	return next
}

// ToggleCondition is ToggleGenre for the condition facet.
func ToggleCondition(state domain.FilterState, condition domain.Condition) domain.FilterState {
	next := clone(state)
	next.Conditions = toggle(next.Conditions, condition)
	return next
}

// SelectGenre adds genre to the selection unless it is already there.
func SelectGenre(state domain.FilterState, genre domain.Genre) domain.FilterState {
	next := clone(state)
	next.Genres = include(next.Genres, genre)
	return next
}

func SelectCondition(state domain.FilterState, condition domain.Condition) domain.FilterState {
	next := clone(state)
	next.Conditions = include(next.Conditions, condition)
	return next
}

// SetPriceRange replaces the price bounds as given, without clamping.
func SetPriceRange(state domain.FilterState, price domain.PriceRange) domain.FilterState {
	next := clone(state)
	next.Price = price
	return next
}

// ClearFilters resets the price window to its default and empties both
// selections.
func ClearFilters(domain.FilterState) domain.FilterState {
	return domain.DefaultFilterState()
}

func toggle[T comparable](selected []T, value T) []T {
	if i := slices.Index(selected, value); i >= 0 {
		return slices.Delete(selected, i, i+1)
	}
	return append(selected, value)
}

func include[T comparable](selected []T, value T) []T {
	if slices.Contains(selected, value) {
		return selected
	}
	return append(selected, value)
}

func clone(state domain.FilterState) domain.FilterState {
	return domain.FilterState{
		Price:      state.Price,
		Genres:     append([]domain.Genre{}, state.Genres...),
		Conditions: append([]domain.Condition{}, state.Conditions...),
	}
}
