package repository

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"slices"

	"bookmarket/api/internal/domain"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/catalog.yaml
var defaultCatalog []byte

type catalogFixture struct {
	Books   []domain.Book       `yaml:"books"`
	Details []domain.BookDetail `yaml:"details"`
}

// fixtureRepository serves a static catalog held in memory.
type fixtureRepository struct {
	books   []domain.Book
	details map[int]domain.BookDetail
}

// NewFixtureRepository loads the catalog from path, or from the embedded
// sample catalog when path is empty.
func NewFixtureRepository(path string) (BookRepository, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog fixture %s: %w", path, err)
		}
	}

	repo, err := parseFixture(data)
	if err != nil {
		return nil, err
	}

	source := path
	if source == "" {
		source = "embedded sample"
	}
	log.Infof("📖 Loaded %d books from %s catalog", len(repo.books), source)
	return repo, nil
}

func parseFixture(data []byte) (*fixtureRepository, error) {
	var fixture catalogFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse catalog fixture: %w", err)
	}

	seen := make(map[int]bool, len(fixture.Books))
	for _, book := range fixture.Books {
		if seen[book.ID] {
			return nil, fmt.Errorf("duplicate book id %d in catalog fixture", book.ID)
		}
		if book.Price.IsNegative() {
			return nil, fmt.Errorf("book %d has a negative price", book.ID)
		}
		seen[book.ID] = true
	}

	details := make(map[int]domain.BookDetail, len(fixture.Details))
	for _, detail := range fixture.Details {
		if !seen[detail.ID] {
			return nil, fmt.Errorf("detail for unknown book id %d in catalog fixture", detail.ID)
		}
		details[detail.ID] = detail
	}

	return &fixtureRepository{
		books:   fixture.Books,
		details: details,
	}, nil
}

func (r *fixtureRepository) ListBooks(ctx context.Context) ([]domain.Book, error) {
	return slices.Clone(r.books), nil
}

func (r *fixtureRepository) GetBookDetail(ctx context.Context, id int) (*domain.BookDetail, error) {
	i := slices.IndexFunc(r.books, func(b domain.Book) bool { return b.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}

	detail, ok := r.details[id]
	if !ok {
		detail = domain.BookDetail{InStock: true, Quantity: 1}
	}
	detail.Book = r.books[i]
	if detail.Reviews == nil {
		detail.Reviews = []domain.Review{}
	}
	if detail.RelatedIDs == nil {
		detail.RelatedIDs = []int{}
	}

	return &detail, nil
}
