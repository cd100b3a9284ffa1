// Package publisher implements the two ways a finished listing draft reaches
// the listing service: a synchronous call, or a ticket backed by a Redis
// stream that workers drain.
package publisher

import (
	"context"
	"fmt"
	"time"

	"bookmarket/api/internal/client"
	"bookmarket/api/internal/domain"
	"bookmarket/api/internal/domain/task"
	"bookmarket/api/internal/queue"
	"bookmarket/api/internal/state"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Direct publishes synchronously and only returns once the listing service
// has answered.
type Direct struct {
	client client.ListingClient
	now    func() time.Time
}

func NewDirect(listingClient client.ListingClient) *Direct {
	return &Direct{client: listingClient, now: time.Now}
}

func (p *Direct) Publish(ctx context.Context, draft domain.ListingDraft) (*domain.Receipt, error) {
	ticket := uuid.NewString()

	result, err := p.client.PublishListing(ctx, ticket, draft)
	if err != nil {
		return nil, err
	}

	return &domain.Receipt{
		Ticket:    ticket,
		ListingID: result.ListingID,
		Status:    domain.PublishStatusPublished,
		UpdatedAt: p.now().UTC(),
	}, nil
}

// Queued enqueues the draft and returns a pending receipt straight away.
// The outcome is later recorded in the status store under the same ticket.
type Queued struct {
	queue  queue.Queue
	status state.StatusStore
	now    func() time.Time
}

func NewQueued(q queue.Queue, status state.StatusStore) *Queued {
	return &Queued{queue: q, status: status, now: time.Now}
}

func (p *Queued) Publish(ctx context.Context, draft domain.ListingDraft) (*domain.Receipt, error) {
	receipt := domain.Receipt{
		Ticket:    uuid.NewString(),
		Status:    domain.PublishStatusPending,
		UpdatedAt: p.now().UTC(),
	}

	// Status first, so a fast worker never finds an unknown ticket.
	if err := p.status.SetStatus(ctx, receipt); err != nil {
		return nil, err
	}

	msgID, err := p.queue.AddTask(ctx, &task.PublishListingTask{Ticket: receipt.Ticket, Draft: draft})
	if err != nil {
		failed := receipt
		failed.Status = domain.PublishStatusFailed
		failed.Error = err.Error()
		if setErr := p.status.SetStatus(ctx, failed); setErr != nil {
			log.Errorf("❌ Failed to mark ticket %s as failed: %v", receipt.Ticket, setErr)
		}
		return nil, fmt.Errorf("failed to enqueue listing: %w", err)
	}

	log.Infof("📨 Queued listing %q as ticket %s (message %s)", draft.Details.Title, receipt.Ticket, msgID)
	return &receipt, nil
}

// Status looks up the receipt for a queued ticket.
func (p *Queued) Status(ctx context.Context, ticket string) (*domain.Receipt, error) {
	return p.status.GetStatus(ctx, ticket)
}
