package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bookmarket/api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// postgresRepository reads the catalog from the books and book_details
// tables. It never writes.
type postgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) BookRepository {
	return &postgresRepository{
		db: db,
	}
}

const selectBooks = `
	SELECT id, title, author, price::text, rating, genre, condition, COALESCE(cover_image, '')
	FROM books`

func (r *postgresRepository) ListBooks(ctx context.Context) ([]domain.Book, error) {
	rows, err := r.db.Query(ctx, selectBooks+` ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	books := make([]domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read books: %w", err)
	}

	return books, nil
}

func (r *postgresRepository) GetBookDetail(ctx context.Context, id int) (*domain.BookDetail, error) {
	book, err := scanBook(r.db.QueryRow(ctx, selectBooks+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("book %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	detail := domain.BookDetail{InStock: true, Quantity: 1}

	var data []byte
	err = r.db.QueryRow(ctx, `SELECT data FROM book_details WHERE book_id = $1`, id).Scan(&data)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to query details for book %d: %w", id, err)
	default:
		if err := json.Unmarshal(data, &detail); err != nil {
			return nil, fmt.Errorf("failed to decode details for book %d: %w", id, err)
		}
	}

	detail.Book = *book
	if detail.Reviews == nil {
		detail.Reviews = []domain.Review{}
	}
	if detail.RelatedIDs == nil {
		detail.RelatedIDs = []int{}
	}

	return &detail, nil
}

func scanBook(row pgx.Row) (*domain.Book, error) {
	var (
		book  domain.Book
		price string
	)
	err := row.Scan(&book.ID, &book.Title, &book.Author, &price, &book.Rating, &book.Genre, &book.Condition, &book.CoverImage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}

	book.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("book %d has malformed price %q: %w", book.ID, price, err)
	}

	return &book, nil
}
