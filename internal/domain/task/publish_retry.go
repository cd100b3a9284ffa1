package task

import "bookmarket/api/internal/domain"

const TypePublishRetry = "PublishRetryTask"

type PublishRetryTask struct {
	Ticket     string              `json:"ticket"`
	Draft      domain.ListingDraft `json:"draft"`
	RetryCount int                 `json:"retry_count"` // Attempts made so far
	Error      string              `json:"error"`       // Error message from the last failure
}

func (t *PublishRetryTask) TaskType() string {
	return TypePublishRetry
}

func (t *PublishRetryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
