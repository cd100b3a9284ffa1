package domain

import "github.com/shopspring/decimal"

// Book is a single catalog entry as shown on the browse page.
type Book struct {
	ID         int             `json:"id" yaml:"id"`
	Title      string          `json:"title" yaml:"title"`
	Author     string          `json:"author" yaml:"author"`
	Price      decimal.Decimal `json:"price" yaml:"price"`
	Rating     float64         `json:"rating" yaml:"rating"`
	Genre      Genre           `json:"genre" yaml:"genre"`
	Condition  Condition       `json:"condition" yaml:"condition"`
	CoverImage string          `json:"cover_image,omitempty" yaml:"cover_image"`
}

// Seller is the storefront that lists a book.
type Seller struct {
	Name   string  `json:"name" yaml:"name"`
	Rating float64 `json:"rating" yaml:"rating"`
	Sales  int     `json:"sales" yaml:"sales"`
}

type ReviewUser struct {
	Name   string `json:"name" yaml:"name"`
	Avatar string `json:"avatar,omitempty" yaml:"avatar"`
}

type Review struct {
	ID      int        `json:"id" yaml:"id"`
	User    ReviewUser `json:"user" yaml:"user"`
	Rating  int        `json:"rating" yaml:"rating"`
	Date    string     `json:"date" yaml:"date"`
	Comment string     `json:"comment" yaml:"comment"`
}

// BookDetail is the product page view of a book
type BookDetail struct {
	Book `yaml:",inline"`

	OriginalPrice    decimal.Decimal `json:"original_price" yaml:"original_price"`
	ReviewCount      int             `json:"review_count" yaml:"review_count"`
	ISBN             string          `json:"isbn" yaml:"isbn"`
	Publisher        string          `json:"publisher" yaml:"publisher"`
	PublishDate      string          `json:"publish_date" yaml:"publish_date"`
	Pages            int             `json:"pages" yaml:"pages"`
	Language         string          `json:"language" yaml:"language"`
	Description      string          `json:"description" yaml:"description"`
	Seller           Seller          `json:"seller" yaml:"seller"`
	InStock          bool            `json:"in_stock" yaml:"in_stock"`
	Quantity         int             `json:"quantity" yaml:"quantity"`
	Shipping         string          `json:"shipping" yaml:"shipping"`
	DeliveryEstimate string          `json:"delivery_estimate" yaml:"delivery_estimate"`
	Reviews          []Review        `json:"reviews" yaml:"reviews"`
	RelatedIDs       []int           `json:"related_ids" yaml:"related_ids"`
}

// Category is a genre shelf with the number of books listed under it.
type Category struct {
	Name  Genre `json:"name"`
	Count int   `json:"count"`
}
