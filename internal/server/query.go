package server

import (
	"fmt"
	"net/url"
	"strings"

	"bookmarket/api/internal/catalog"
	"bookmarket/api/internal/domain"
	"bookmarket/api/internal/service"

	"github.com/shopspring/decimal"
)

// parseBrowseQuery reads the browse state from query parameters. Absent
// parameters keep their defaults.
func parseBrowseQuery(values url.Values) (service.BrowseQuery, error) {
	query := service.DefaultBrowseQuery()

	if raw := strings.TrimSpace(values.Get("minPrice")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return query, fmt.Errorf("invalid minPrice %q", raw)
		}
		query.Filters.Price.Min = price
	}

	if raw := strings.TrimSpace(values.Get("maxPrice")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return query, fmt.Errorf("invalid maxPrice %q", raw)
		}
		query.Filters.Price.Max = price
	}

	for _, genre := range values["genre"] {
		if genre = strings.TrimSpace(genre); genre != "" {
			query.Filters = catalog.SelectGenre(query.Filters, domain.Genre(genre))
		}
	}

	for _, condition := range values["condition"] {
		if condition = strings.TrimSpace(condition); condition != "" {
			query.Filters = catalog.SelectCondition(query.Filters, domain.Condition(condition))
		}
	}

	query.Sort = domain.ParseSortKey(values.Get("sort"))
	query.View = domain.ParseViewMode(values.Get("view"))

	return query, nil
}
