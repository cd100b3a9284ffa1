package repository

import (
	"context"
	"errors"

	"bookmarket/api/internal/domain"
)

// ErrNotFound indicates a requested book is missing from the catalog.
var ErrNotFound = errors.New("book not found")

// BookRepository is the read side of the catalog. Books come back in
// catalog order, which is the order "featured" sorting preserves.
type BookRepository interface {
	ListBooks(ctx context.Context) ([]domain.Book, error)
	GetBookDetail(ctx context.Context, id int) (*domain.BookDetail, error)
}
