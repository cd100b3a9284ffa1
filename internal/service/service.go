package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookmarket/api/internal/catalog"
	"bookmarket/api/internal/domain"
	"bookmarket/api/internal/listing"
	"bookmarket/api/internal/repository"

	log "github.com/sirupsen/logrus"
)

// ErrStatusUnavailable is returned by ListingStatus when listings are
// published synchronously and no tickets are tracked.
var ErrStatusUnavailable = errors.New("listing status tracking is not enabled")

// TicketLookup resolves the receipt of a queued publish.
type TicketLookup interface {
	Status(ctx context.Context, ticket string) (*domain.Receipt, error)
}

type Service struct {
	repository     repository.BookRepository
	publisher      listing.Publisher
	tickets        TicketLookup
	featuredCount  int
	publishTimeout time.Duration
}

// NewService wires the catalog and listing flows. tickets may be nil.
func NewService(
	repository repository.BookRepository,
	publisher listing.Publisher,
	tickets TicketLookup,
	featuredCount int,
	publishTimeout time.Duration,
) *Service {
	return &Service{
		repository:     repository,
		publisher:      publisher,
		tickets:        tickets,
		featuredCount:  featuredCount,
		publishTimeout: publishTimeout,
	}
}

// BrowseQuery carries the whole browse page state; nothing is kept between
// requests.
type BrowseQuery struct {
	Filters domain.FilterState
	Sort    domain.SortKey
	View    domain.ViewMode
}

func DefaultBrowseQuery() BrowseQuery {
	return BrowseQuery{
		Filters: domain.DefaultFilterState(),
		Sort:    domain.SortFeatured,
		View:    domain.ViewGrid,
	}
}

type BrowseResult struct {
	Items     []domain.Book      `json:"items"`
	Count     int                `json:"count"`
	Total     int                `json:"total"`
	Filters   domain.FilterState `json:"filters"`
	Sort      domain.SortKey     `json:"sort"`
	SortLabel string             `json:"sort_label"`
	View      domain.ViewMode    `json:"view"`
}

func (s *Service) Browse(ctx context.Context, query BrowseQuery) (*BrowseResult, error) {
	books, err := s.repository.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	visible := catalog.ComputeVisible(books, query.Filters, query.Sort)

	log.Debugf("🔎 Browse: %d of %d books visible (sort=%s)", len(visible), len(books), query.Sort)

	return &BrowseResult{
		Items:     visible,
		Count:     len(visible),
		Total:     len(books),
		Filters:   query.Filters,
		Sort:      query.Sort,
		SortLabel: query.Sort.Label(),
		View:      query.View,
	}, nil
}

// BookPage is a book's detail view together with its related books.
type BookPage struct {
	*domain.BookDetail
	Related []domain.Book `json:"related"`
}

func (s *Service) GetBook(ctx context.Context, id int) (*BookPage, error) {
	detail, err := s.repository.GetBookDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	related := make([]domain.Book, 0, len(detail.RelatedIDs))
	if len(detail.RelatedIDs) > 0 {
		books, err := s.repository.ListBooks(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list books: %w", err)
		}
		byID := make(map[int]domain.Book, len(books))
		for _, b := range books {
			byID[b.ID] = b
		}
		for _, relatedID := range detail.RelatedIDs {
			if b, ok := byID[relatedID]; ok {
				related = append(related, b)
			} else {
				log.Warnf("⚠️ Book %d lists unknown related book %d", id, relatedID)
			}
		}
	}

	return &BookPage{BookDetail: detail, Related: related}, nil
}

type HomePage struct {
	Featured   []domain.Book     `json:"featured"`
	Categories []domain.Category `json:"categories"`
}

func (s *Service) Home(ctx context.Context) (*HomePage, error) {
	books, err := s.repository.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	return &HomePage{
		Featured:   catalog.Featured(books, s.featuredCount),
		Categories: catalog.CountByGenre(books),
	}, nil
}

type ListingOptions struct {
	Genres          []domain.Genre           `json:"genres"`
	Conditions      []domain.ConditionOption `json:"conditions"`
	ShippingOptions []domain.ShippingChoice  `json:"shipping_options"`
	MaxImages       int                      `json:"max_images"`
}

func (s *Service) ListingOptions() ListingOptions {
	return ListingOptions{
		Genres:          domain.ListingGenres,
		Conditions:      domain.ListingConditions,
		ShippingOptions: domain.ShippingOptions,
		MaxImages:       domain.MaxListingImages,
	}
}

// CreateListing walks a draft through the wizard and publishes it.
func (s *Service) CreateListing(ctx context.Context, draft domain.ListingDraft) (*domain.Receipt, error) {
	wizard := listing.NewWizard(s.publishTimeout)

	details := draft.Details
	details.Images = nil
	wizard.SetDetails(details)
	for _, image := range draft.Details.Images {
		if err := wizard.AddImage(image); err != nil {
			return nil, err
		}
	}
	wizard.Next()

	pricing := draft.Pricing
	if pricing.Quantity == 0 {
		pricing.Quantity = 1
	}
	if pricing.Shipping.Option == "" {
		pricing.Shipping.Option = domain.ShippingFlatRate
	}
	wizard.SetPricing(pricing)
	wizard.Next()

	return wizard.Publish(ctx, s.publisher)
}

func (s *Service) ListingStatus(ctx context.Context, ticket string) (*domain.Receipt, error) {
	if s.tickets == nil {
		return nil, ErrStatusUnavailable
	}
	return s.tickets.Status(ctx, ticket)
}
