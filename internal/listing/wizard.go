// Package listing drives the three-step "sell a book" wizard.
package listing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"bookmarket/api/internal/domain"

	log "github.com/sirupsen/logrus"
)

var (
	ErrNotReviewStep     = errors.New("listing can only be published from the review step")
	ErrPublishInProgress = errors.New("listing publish already in progress")
	ErrAlreadyPublished  = errors.New("listing already published")
	ErrTooManyImages     = fmt.Errorf("a listing holds at most %d images", domain.MaxListingImages)
)

const DefaultPublishTimeout = 10 * time.Second

// Step is a position in the wizard.
type Step int

const (
	StepDetails Step = iota + 1
	StepPricing
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepPricing:
		return "pricing"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// Publisher hands a finished draft to the listing service.
type Publisher interface {
	Publish(ctx context.Context, draft domain.ListingDraft) (*domain.Receipt, error)
}

// Wizard is a linear Details -> Pricing -> Review machine. Transitions do not
// validate the draft. A Wizard is safe for concurrent use.
type Wizard struct {
	mu         sync.Mutex
	step       Step
	draft      domain.ListingDraft
	submitting bool
	receipt    *domain.Receipt
	timeout    time.Duration
}

func NewWizard(timeout time.Duration) *Wizard {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &Wizard{
		step:    StepDetails,
		draft:   domain.NewListingDraft(),
		timeout: timeout,
	}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns a copy of the draft; changing it does not affect the wizard.
func (w *Wizard) Draft() domain.ListingDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// snapshot must be called with mu held.
func (w *Wizard) snapshot() domain.ListingDraft {
	draft := w.draft
	draft.Details.Images = slices.Clone(w.draft.Details.Images)
	return draft
}

func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Receipt is nil until a publish has succeeded.
func (w *Wizard) Receipt() *domain.Receipt {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.receipt
}

// Next advances one step. It is a no-op on the review step.
func (w *Wizard) Next() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step < StepReview {
		w.step++
	}
	return w.step
}

// Back goes back one step. It is a no-op on the details step.
func (w *Wizard) Back() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepDetails {
		w.step--
	}
	return w.step
}

func (w *Wizard) SetDetails(details domain.ListingDetails) {
	w.mu.Lock()
	defer w.mu.Unlock()
	images := w.draft.Details.Images
	w.draft.Details = details
	if details.Images == nil {
		w.draft.Details.Images = images
	} else {
		w.draft.Details.Images = slices.Clone(details.Images)
	}
}

func (w *Wizard) SetPricing(pricing domain.ListingPricing) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Pricing = pricing
}

func (w *Wizard) AddImage(image string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.draft.Details.Images) >= domain.MaxListingImages {
		return ErrTooManyImages
	}
	w.draft.Details.Images = append(w.draft.Details.Images, image)
	return nil
}

// RemoveImage drops the image at index; out-of-range indexes are ignored.
func (w *Wizard) RemoveImage(index int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	images := w.draft.Details.Images
	if index < 0 || index >= len(images) {
		return
	}
	w.draft.Details.Images = append(images[:index:index], images[index+1:]...)
}

// Publish sends the draft through publisher, bounded by the wizard timeout.
// Only one publish may be in flight at a time.
func (w *Wizard) Publish(ctx context.Context, publisher Publisher) (*domain.Receipt, error) {
	w.mu.Lock()
	switch {
	case w.receipt != nil:
		w.mu.Unlock()
		return nil, ErrAlreadyPublished
	case w.step != StepReview:
		step := w.step
		w.mu.Unlock()
		return nil, fmt.Errorf("%w (current step: %s)", ErrNotReviewStep, step)
	case w.submitting:
		w.mu.Unlock()
		return nil, ErrPublishInProgress
	}
	w.submitting = true
	draft := w.snapshot()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	publishCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	log.Infof("📚 Publishing listing %q by %s", draft.Details.Title, draft.Details.Author)

	receipt, err := publisher.Publish(publishCtx, draft)
	if err != nil {
		if publishCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("publish timed out after %v: %w", w.timeout, publishCtx.Err())
		}
		return nil, fmt.Errorf("failed to publish listing: %w", err)
	}

	w.mu.Lock()
	w.receipt = receipt
	w.mu.Unlock()

	log.Infof("✅ Listing %q accepted with ticket %s (%s)", draft.Details.Title, receipt.Ticket, receipt.Status)
	return receipt, nil
}
