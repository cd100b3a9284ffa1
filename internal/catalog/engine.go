// Package catalog filters and orders the book catalog for the browse page.
//
// Every function here is pure: inputs are never mutated and the same
// (catalog, filter state, sort key) always yields the same result.
package catalog

import (
	"cmp"
	"slices"

	"bookmarket/api/internal/domain"
)

// ComputeVisible returns the books that pass the filter state, ordered by
// sortKey. The result is a fresh slice and is never nil.
func ComputeVisible(books []domain.Book, state domain.FilterState, sortKey domain.SortKey) []domain.Book {
	visible := make([]domain.Book, 0, len(books))
	for _, book := range books {
		if Matches(book, state) {
			visible = append(visible, book)
		}
	}

	Sort(visible, sortKey)
	return visible
}

// Matches reports whether a single book passes all three facets.
func Matches(book domain.Book, state domain.FilterState) bool {
	if !state.Price.Contains(book.Price) {
		return false
	}
	if len(state.Genres) > 0 && !slices.Contains(state.Genres, book.Genre) {
		return false
	}
	if len(state.Conditions) > 0 && !slices.Contains(state.Conditions, book.Condition) {
		return false
	}
	return true
}

// Sort orders books in place. The sort is stable, so equal keys keep the
// order they came in; featured leaves the slice untouched.
func Sort(books []domain.Book, sortKey domain.SortKey) {
	switch sortKey {
	case domain.SortPriceLow:
		slices.SortStableFunc(books, func(a, b domain.Book) int {
			return a.Price.Cmp(b.Price)
		})
	case domain.SortPriceHigh:
		slices.SortStableFunc(books, func(a, b domain.Book) int {
			return b.Price.Cmp(a.Price)
		})
	case domain.SortRating:
		slices.SortStableFunc(books, func(a, b domain.Book) int {
			return cmp.Compare(b.Rating, a.Rating)
		})
	}
}

// CountByGenre tallies books per genre in the order each genre first appears.
func CountByGenre(books []domain.Book) []domain.Category {
	index := make(map[domain.Genre]int)
	categories := make([]domain.Category, 0)
	for _, book := range books {
		i, ok := index[book.Genre]
		if !ok {
			i = len(categories)
			index[book.Genre] = i
			categories = append(categories, domain.Category{Name: book.Genre})
		}
		categories[i].Count++
	}
	return categories
}

// Featured returns up to n books from the head of the catalog.
func Featured(books []domain.Book, n int) []domain.Book {
	if n < 0 {
		n = 0
	}
	return slices.Clone(books[:min(n, len(books))])
}
