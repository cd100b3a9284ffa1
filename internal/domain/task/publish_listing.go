package task

import "bookmarket/api/internal/domain"

const TypePublishListing = "PublishListingTask"

type PublishListingTask struct {
	Ticket string              `json:"ticket"` // Receipt ticket handed back to the seller
	Draft  domain.ListingDraft `json:"draft"`
}

func (t *PublishListingTask) TaskType() string {
	return TypePublishListing
}

func (t *PublishListingTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
