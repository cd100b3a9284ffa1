package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bookmarket/api/internal/client"
	"bookmarket/api/internal/domain"
	"bookmarket/api/internal/domain/task"
	"bookmarket/api/internal/queue"
	"bookmarket/api/internal/state"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const defaultMinIdleTime = 120 * time.Second

// Workers drain the publish streams and record each ticket's outcome.
type Workers struct {
	client      client.ListingClient
	queue       queue.Queue
	status      state.StatusStore
	groupName   string
	minIdleTime time.Duration
	maxRetries  int
	now         func() time.Time
}

func NewWorkers(
	listingClient client.ListingClient,
	q queue.Queue,
	status state.StatusStore,
	groupName string,
	minIdleTime time.Duration,
	maxRetries int,
) *Workers {
	if minIdleTime <= 0 {
		minIdleTime = defaultMinIdleTime
	}
	return &Workers{
		client:      listingClient,
		queue:       q,
		status:      status,
		groupName:   groupName,
		minIdleTime: minIdleTime,
		maxRetries:  maxRetries,
		now:         time.Now,
	}
}

// RunWorkers blocks until ctx is cancelled and every worker has stopped.
func (w *Workers) RunWorkers(ctx context.Context, numWorkers int) error {
	var wg sync.WaitGroup

	w.runWorkersForStream(ctx, &wg, max(1, numWorkers), queue.StreamName(task.TypePublishListing), "main")
	w.runWorkersForStream(ctx, &wg, max(1, numWorkers/2), queue.StreamName(task.TypePublishRetry), "retry")

	wg.Wait()
	return nil
}

func (w *Workers) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, streamName, workerType string) {
	// Auto-claimer for messages whose consumer died before acking
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(w.minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%s-%d", workerType, time.Now().UnixNano())
				claimedMessages, err := w.queue.AutoClaim(ctx, w.groupName, consumer, streamName, w.minIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
					continue
				}
				if len(claimedMessages) > 0 {
					log.Infof("🔄 Auto-claimed %d messages from %s stream", len(claimedMessages), workerType)
					for _, msg := range claimedMessages {
						if err := w.processMessage(ctx, &msg); err != nil {
							logProcessError("auto-claimed message", msg.ID, err)
						}
					}
				}
			}
		}
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d", workerType, workerID)
			log.Infof("🚀 Starting %s worker %d as consumer %s", workerType, workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 %s worker %d stopping", workerType, workerID)
					return
				default:
					msg, err := w.queue.GetTask(ctx, w.groupName, consumer, streamName)
					if err != nil {
						if ctx.Err() == nil {
							log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
						}
						continue
					}

					if msg != nil {
						if err := w.processMessage(ctx, msg); err != nil {
							logProcessError("message", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}
}

// processMessage acks msg only once the ticket has a recorded outcome or has
// been handed to the retry stream. Anything else leaves it pending for the
// auto-claimer, including attempts refused by an open circuit breaker, which
// therefore do not count against the retry budget.
func (w *Workers) processMessage(ctx context.Context, msg *redis.XMessage) error {
	taskType, body, err := queue.Decode(msg)
	if err != nil {
		return err
	}

	switch taskType {
	case task.TypePublishListing:
		publishTask, err := task.UnmarshalTask[*task.PublishListingTask](body)
		if errors.Is(err, task.ErrEmptyTask) {
			log.Warnf("⚠️ Dropping empty %s message %s", taskType, msg.ID)
			break
		}
		if err != nil {
			return fmt.Errorf("failed to unmarshal publish task data: %w", err)
		}
		if err := w.publish(ctx, publishTask.Ticket, publishTask.Draft, 0); err != nil {
			return err
		}

	case task.TypePublishRetry:
		retryTask, err := task.UnmarshalTask[*task.PublishRetryTask](body)
		if errors.Is(err, task.ErrEmptyTask) {
			log.Warnf("⚠️ Dropping empty %s message %s", taskType, msg.ID)
			break
		}
		if err != nil {
			return fmt.Errorf("failed to unmarshal retry task data: %w", err)
		}

		attempt := retryTask.RetryCount + 1
		log.Infof("🔄 Retrying ticket %s (attempt %d)", retryTask.Ticket, attempt)

		if err := w.publish(ctx, retryTask.Ticket, retryTask.Draft, attempt); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}

	if err := w.queue.AckTask(ctx, queue.StreamName(taskType), w.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}

// publish makes one attempt for ticket. A nil return means the message is
// done with: published, failed for good, or requeued as a retry.
func (w *Workers) publish(ctx context.Context, ticket string, draft domain.ListingDraft, attempt int) error {
	result, err := w.client.PublishListing(ctx, ticket, draft)
	if err == nil {
		log.Infof("✅ Ticket %s published as listing %s", ticket, result.ListingID)
		return w.status.SetStatus(ctx, domain.Receipt{
			Ticket:    ticket,
			ListingID: result.ListingID,
			Status:    domain.PublishStatusPublished,
			UpdatedAt: w.now().UTC(),
		})
	}

	if ctx.Err() != nil {
		return fmt.Errorf("publish of ticket %s interrupted: %w", ticket, err)
	}

	if errors.Is(err, client.ErrCircuitOpen) {
		return fmt.Errorf("ticket %s left pending: %w", ticket, err)
	}

	if errors.Is(err, client.ErrRejected) || attempt >= w.maxRetries {
		log.Errorf("❌ Ticket %s failed after %d retries: %v", ticket, attempt, err)
		return w.status.SetStatus(ctx, domain.Receipt{
			Ticket:    ticket,
			Status:    domain.PublishStatusFailed,
			Error:     err.Error(),
			UpdatedAt: w.now().UTC(),
		})
	}

	retryTask := &task.PublishRetryTask{
		Ticket:     ticket,
		Draft:      draft,
		RetryCount: attempt,
		Error:      err.Error(),
	}
	if _, addErr := w.queue.AddTask(ctx, retryTask); addErr != nil {
		return fmt.Errorf("failed to add retry task for ticket %s: %w", ticket, addErr)
	}

	log.Warnf("🔄 Ticket %s added to retry queue (attempt %d): %v", ticket, attempt, err)
	return nil
}

func logProcessError(what, msgID string, err error) {
	if errors.Is(err, client.ErrCircuitOpen) {
		log.Warnf("⏸️ %s %s deferred: %v", what, msgID, err)
		return
	}
	log.Errorf("❌ Failed to process %s %s: %v", what, msgID, err)
}
