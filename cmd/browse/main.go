// Command browse runs the catalog filter and sort engine against a catalog
// fixture from the terminal.
//
//	browse --min 5 --max 20 --genre Fiction --condition New --sort price-low --view list
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"bookmarket/api/internal/catalog"
	"bookmarket/api/internal/domain"
	"bookmarket/api/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type browseOptions struct {
	fixture    string
	min        string
	max        string
	genres     []string
	conditions []string
	sort       string
	view       string
	asJSON     bool
}

func newRootCmd() *cobra.Command {
	opts := &browseOptions{}

	cmd := &cobra.Command{
		Use:           "browse",
		Short:         "Filter and sort the book catalog",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, opts)
		},
	}

	defaults := domain.DefaultPriceRange()
	flags := cmd.Flags()
	flags.StringVar(&opts.fixture, "fixture", "", "catalog fixture file (defaults to the built-in catalog)")
	flags.StringVar(&opts.min, "min", defaults.Min.String(), "minimum price, inclusive")
	flags.StringVar(&opts.max, "max", defaults.Max.String(), "maximum price, inclusive")
	flags.StringSliceVar(&opts.genres, "genre", nil, "genre to include (repeatable)")
	flags.StringSliceVar(&opts.conditions, "condition", nil, "condition to include (repeatable)")
	flags.StringVar(&opts.sort, "sort", domain.SortFeatured.String(), "featured, price-low, price-high or rating")
	flags.StringVar(&opts.view, "view", string(domain.ViewGrid), "grid or list")
	flags.BoolVar(&opts.asJSON, "json", false, "print the result as JSON")

	return cmd
}

func runBrowse(cmd *cobra.Command, opts *browseOptions) error {
	state, err := opts.filterState()
	if err != nil {
		return err
	}

	repo, err := repository.NewFixtureRepository(opts.fixture)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	books, err := repo.ListBooks(cmd.Context())
	if err != nil {
		return err
	}

	sortKey := domain.ParseSortKey(opts.sort)
	visible := catalog.ComputeVisible(books, state, sortKey)
	out := cmd.OutOrStdout()

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(visible)
	}

	fmt.Fprintf(out, "Showing %d of %d books (sorted by %s)\n", len(visible), len(books), sortKey.Label())
	if domain.ParseViewMode(opts.view) == domain.ViewList {
		return printList(out, visible)
	}
	printGrid(out, visible)
	return nil
}

func (o *browseOptions) filterState() (domain.FilterState, error) {
	state := domain.DefaultFilterState()

	minPrice, err := decimal.NewFromString(o.min)
	if err != nil {
		return state, fmt.Errorf("invalid --min %q: %w", o.min, err)
	}
	maxPrice, err := decimal.NewFromString(o.max)
	if err != nil {
		return state, fmt.Errorf("invalid --max %q: %w", o.max, err)
	}
	state = catalog.SetPriceRange(state, domain.PriceRange{Min: minPrice, Max: maxPrice})

	for _, g := range o.genres {
		state = catalog.SelectGenre(state, domain.Genre(g))
	}
	for _, c := range o.conditions {
		state = catalog.SelectCondition(state, domain.Condition(c))
	}

	return state, nil
}

func printList(out io.Writer, books []domain.Book) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tCONDITION\tPRICE\tRATING")
	for _, b := range books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t$%s\t%.1f\n",
			b.ID, b.Title, b.Author, b.Genre, b.Condition, b.Price.StringFixed(2), b.Rating)
	}
	return tw.Flush()
}

func printGrid(out io.Writer, books []domain.Book) {
	for _, b := range books {
		fmt.Fprintf(out, "[%d] %s ($%s)\n", b.ID, b.Title, b.Price.StringFixed(2))
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
