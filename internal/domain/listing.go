package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingCondition is the condition grade a seller picks for a new listing.
type ListingCondition string

const (
	ListingConditionNew        ListingCondition = "new"
	ListingConditionLikeNew    ListingCondition = "like-new"
	ListingConditionVeryGood   ListingCondition = "very-good"
	ListingConditionGood       ListingCondition = "good"
	ListingConditionAcceptable ListingCondition = "acceptable"
)

type ConditionOption struct {
	Value       ListingCondition `json:"value"`
	Label       string           `json:"label"`
	Description string           `json:"description"`
}

var ListingConditions = []ConditionOption{
	{Value: ListingConditionNew, Label: "New", Description: "Brand new, never used, in perfect condition"},
	{Value: ListingConditionLikeNew, Label: "Like New", Description: "Looks new and has no visible wear"},
	{Value: ListingConditionVeryGood, Label: "Very Good", Description: "Minor signs of wear, but well maintained"},
	{Value: ListingConditionGood, Label: "Good", Description: "Some signs of wear and tear from normal use"},
	{Value: ListingConditionAcceptable, Label: "Acceptable", Description: "Shows significant wear, but intact and readable"},
}

type ShippingOption string

const (
	ShippingFlatRate   ShippingOption = "flat-rate"
	ShippingFree       ShippingOption = "free-shipping"
	ShippingCalculated ShippingOption = "calculated"
)

type ShippingChoice struct {
	Value       ShippingOption `json:"value"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
}

var ShippingOptions = []ShippingChoice{
	{Value: ShippingFlatRate, Label: "Flat Rate Shipping", Description: "Charge a fixed shipping rate to all buyers"},
	{Value: ShippingFree, Label: "Free Shipping", Description: "Offer free shipping to attract more buyers"},
	{Value: ShippingCalculated, Label: "Calculated Shipping", Description: "Shipping cost calculated based on buyer's location"},
}

// MaxListingImages caps the number of photos on one listing; the first is the cover.
const MaxListingImages = 5

type ListingDetails struct {
	Title           string           `json:"title"`
	Author          string           `json:"author"`
	ISBN            string           `json:"isbn,omitempty"`
	Genre           Genre            `json:"genre,omitempty"`
	Publisher       string           `json:"publisher,omitempty"`
	PublicationYear int              `json:"publication_year,omitempty"`
	Condition       ListingCondition `json:"condition,omitempty"`
	Description     string           `json:"description,omitempty"`
	Images          []string         `json:"images,omitempty"`
}

type Shipping struct {
	Option    ShippingOption  `json:"option"`
	Cost      decimal.Decimal `json:"cost"`
	WeightLbs float64         `json:"weight_lbs,omitempty"`
}

type ListingPricing struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Shipping Shipping        `json:"shipping"`
}

// ListingDraft is everything the sell wizard collects before publishing.
type ListingDraft struct {
	Details ListingDetails `json:"details"`
	Pricing ListingPricing `json:"pricing"`
}

func NewListingDraft() ListingDraft {
	return ListingDraft{
		Pricing: ListingPricing{
			Quantity: 1,
			Shipping: Shipping{Option: ShippingFlatRate},
		},
	}
}

type PublishStatus string

const (
	PublishStatusPending   PublishStatus = "pending"
	PublishStatusPublished PublishStatus = "published"
	PublishStatusFailed    PublishStatus = "failed"
)

// Receipt is what a publisher hands back for a listing. ListingID is set once
// the listing service has accepted the draft.
type Receipt struct {
	Ticket    string        `json:"ticket"`
	ListingID string        `json:"listing_id,omitempty"`
	Status    PublishStatus `json:"status"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}
