package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"bookmarket/api/internal/client"
	"bookmarket/api/internal/domain"
	"bookmarket/api/internal/domain/task"
	"bookmarket/api/internal/queue"
	"bookmarket/api/internal/testkit"
)

const testGroup = "test_publishers"

func enqueue(t *testing.T, q *testkit.Queue, ticket string) string {
	t.Helper()
	draft := domain.NewListingDraft()
	draft.Details.Title = "Dune"
	id, err := q.AddTask(context.Background(), &task.PublishListingTask{Ticket: ticket, Draft: draft})
	require.NoError(t, err)
	return id
}

// deliver pulls the next message off stream, as a worker would.
func deliver(t *testing.T, q *testkit.Queue, taskType string) *redis.XMessage {
	t.Helper()
	msg, err := q.GetTask(context.Background(), testGroup, "test", queue.StreamName(taskType))
	require.NoError(t, err)
	require.NotNil(t, msg)
	return msg
}

func status(t *testing.T, store *testkit.StatusStore, ticket string) domain.PublishStatus {
	t.Helper()
	receipt, err := store.GetStatus(context.Background(), ticket)
	require.NoError(t, err)
	return receipt.Status
}

func TestProcessMessage_PublishesAndAcks(t *testing.T) {
	q, store := testkit.NewQueue(), testkit.NewStatusStore()
	listingClient := &testkit.ListingClient{}
	w := NewWorkers(listingClient, q, store, testGroup, time.Minute, 2)

	enqueue(t, q, "t-1")
	msg := deliver(t, q, task.TypePublishListing)

	require.NoError(t, w.processMessage(context.Background(), msg))

	receipt, err := store.GetStatus(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PublishStatusPublished, receipt.Status)
	assert.Equal(t, "lst-t-1", receipt.ListingID)
	assert.True(t, q.Acked(msg.ID))
}

func TestProcessMessage_TransientFailureGoesToRetryStream(t *testing.T) {
	q, store := testkit.NewQueue(), testkit.NewStatusStore()
	listingClient := &testkit.ListingClient{Errors: []error{errors.New("502 Bad Gateway")}}
	w := NewWorkers(listingClient, q, store, testGroup, time.Minute, 2)

	enqueue(t, q, "t-1")
	msg := deliver(t, q, task.TypePublishListing)

	require.NoError(t, w.processMessage(context.Background(), msg))
	assert.True(t, q.Acked(msg.ID))

	retries := q.Messages(queue.StreamName(task.TypePublishRetry))
	require.Len(t, retries, 1)
	retryTask, err := task.UnmarshalTask[*task.PublishRetryTask]([]byte(retries[0].Values["task_data"].(string)))
	require.NoError(t, err)
	assert.Equal(t, "t-1", retryTask.Ticket)
	assert.Equal(t, 0, retryTask.RetryCount)
	assert.Equal(t, "502 Bad Gateway", retryTask.Error)

	retryMsg := deliver(t, q, task.TypePublishRetry)
	require.NoError(t, w.processMessage(context.Background(), retryMsg))

	assert.Equal(t, domain.PublishStatusPublished, status(t, store, "t-1"))
	assert.Equal(t, 2, listingClient.CallCount())
}

func TestProcessMessage_GivesUpAfterMaxRetries(t *testing.T) {
	q, store := testkit.NewQueue(), testkit.NewStatusStore()
	boom := errors.New("502 Bad Gateway")
	listingClient := &testkit.ListingClient{Errors: []error{boom, boom, boom, boom}}
	w := NewWorkers(listingClient, q, store, testGroup, time.Minute, 2)

	enqueue(t, q, "t-1")
	require.NoError(t, w.processMessage(context.Background(), deliver(t, q, task.TypePublishListing)))
	require.NoError(t, w.processMessage(context.Background(), deliver(t, q, task.TypePublishRetry)))
	require.NoError(t, w.processMessage(context.Background(), deliver(t, q, task.TypePublishRetry)))

	receipt, err := store.GetStatus(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PublishStatusFailed, receipt.Status)
	assert.Equal(t, boom.Error(), receipt.Error)
	assert.Equal(t, 3, listingClient.CallCount())
	assert.Len(t, q.Messages(queue.StreamName(task.TypePublishRetry)), 2)
}

func TestProcessMessage_RejectedDraftIsNotRetried(t *testing.T) {
	q, store := testkit.NewQueue(), testkit.NewStatusStore()
	rejected := fmt.Errorf("422: title is required: %w", client.ErrRejected)
	w := NewWorkers(&testkit.ListingClient{Errors: []error{rejected}}, q, store, testGroup, time.Minute, 5)

	enqueue(t, q, "t-1")
	require.NoError(t, w.processMessage(context.Background(), deliver(t, q, task.TypePublishListing)))

	assert.Equal(t, domain.PublishStatusFailed, status(t, store, "t-1"))
	assert.Empty(t, q.Messages(queue.StreamName(task.TypePublishRetry)))
}

func TestProcessMessage_StatusFailureLeavesMessagePending(t *testing.T) {
	q, store := testkit.NewQueue(), testkit.NewStatusStore()
	store.SetErr = errors.New("redis down")
	w := NewWorkers(&testkit.ListingClient{}, q, store, testGroup, time.Minute, 2)

	enqueue(t, q, "t-1")
	msg := deliver(t, q, task.TypePublishListing)

	assert.Error(t, w.processMessage(context.Background(), msg))
	assert.False(t, q.Acked(msg.ID))
}

func TestProcessMessage_InvalidMessages(t *testing.T) {
	w := NewWorkers(&testkit.ListingClient{}, testkit.NewQueue(), testkit.NewStatusStore(), testGroup, time.Minute, 2)

	for name, values := range map[string]map[string]interface{}{
		"missing type": {"task_data": "{}"},
		"missing data": {"task_type": task.TypePublishListing},
		"unknown type": {"task_type": "CatalogPageTask", "task_data": "{}"},
		"bad json":     {"task_type": task.TypePublishListing, "task_data": "{"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, w.processMessage(context.Background(), &redis.XMessage{ID: "1-0", Values: values}))
		})
	}
}

func TestProcessMessage_OpenCircuitLeavesMessagePending(t *testing.T) {
	q, store := testkit.NewQueue(), testkit.NewStatusStore()
	throttled := fmt.Errorf("%w: listing service is throttling requests", client.ErrCircuitOpen)
	listingClient := &testkit.ListingClient{Errors: []error{throttled, throttled}}
	w := NewWorkers(listingClient, q, store, testGroup, time.Minute, 0)

	enqueue(t, q, "t-1")
	msg := deliver(t, q, task.TypePublishListing)

	for range 2 {
		err := w.processMessage(context.Background(), msg)
		assert.ErrorIs(t, err, client.ErrCircuitOpen)
	}

	assert.False(t, q.Acked(msg.ID))
	assert.Empty(t, q.Messages(queue.StreamName(task.TypePublishRetry)))
	_, err := store.GetStatus(context.Background(), "t-1")
	assert.Error(t, err, "no outcome is recorded while the breaker is open")

	require.NoError(t, w.processMessage(context.Background(), msg))
	assert.True(t, q.Acked(msg.ID))
	assert.Equal(t, domain.PublishStatusPublished, status(t, store, "t-1"))
}

func TestProcessMessage_OpenCircuitDoesNotSpendRetries(t *testing.T) {
	q, store := testkit.NewQueue(), testkit.NewStatusStore()
	throttled := fmt.Errorf("%w: paused", client.ErrCircuitOpen)
	listingClient := &testkit.ListingClient{Errors: []error{throttled, throttled, throttled}}
	w := NewWorkers(listingClient, q, store, testGroup, time.Minute, 1)

	_, err := q.AddTask(context.Background(), &task.PublishRetryTask{Ticket: "t-1", RetryCount: 0})
	require.NoError(t, err)
	msg := deliver(t, q, task.TypePublishRetry)

	for range 3 {
		assert.ErrorIs(t, w.processMessage(context.Background(), msg), client.ErrCircuitOpen)
	}
	require.NoError(t, w.processMessage(context.Background(), msg))

	assert.Equal(t, domain.PublishStatusPublished, status(t, store, "t-1"))
	assert.Len(t, q.Messages(queue.StreamName(task.TypePublishRetry)), 1)
}

func TestProcessMessage_EmptyBodyIsDropped(t *testing.T) {
	q, store := testkit.NewQueue(), testkit.NewStatusStore()
	listingClient := &testkit.ListingClient{}
	w := NewWorkers(listingClient, q, store, testGroup, time.Minute, 2)

	for _, taskType := range []string{task.TypePublishListing, task.TypePublishRetry} {
		q.Push(queue.StreamName(taskType), map[string]interface{}{"task_type": taskType, "task_data": "null"})
		msg := deliver(t, q, taskType)

		require.NoError(t, w.processMessage(context.Background(), msg))
		assert.True(t, q.Acked(msg.ID))
	}
	assert.Zero(t, listingClient.CallCount())
}

func TestRunWorkers_RecoversAfterThrottling(t *testing.T) {
	defer goleak.VerifyNone(t)

	q, store := testkit.NewQueue(), testkit.NewStatusStore()
	throttled := fmt.Errorf("%w: listing service is throttling requests", client.ErrCircuitOpen)
	listingClient := &testkit.ListingClient{Errors: []error{throttled, throttled, throttled}}
	w := NewWorkers(listingClient, q, store, testGroup, 20*time.Millisecond, 0)

	enqueue(t, q, "t-1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.RunWorkers(ctx, 1)
	}()

	assert.Eventually(t, func() bool {
		receipt, err := store.GetStatus(context.Background(), "t-1")
		return err == nil && receipt.Status == domain.PublishStatusPublished
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, q.Messages(queue.StreamName(task.TypePublishRetry)))

	cancel()
	<-done
}

func TestRunWorkers_DrainsQueueAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	q, store := testkit.NewQueue(), testkit.NewStatusStore()
	listingClient := &testkit.ListingClient{Errors: []error{errors.New("timeout")}}
	w := NewWorkers(listingClient, q, store, testGroup, time.Hour, 3)

	tickets := []string{"t-1", "t-2", "t-3"}
	for _, ticket := range tickets {
		enqueue(t, q, ticket)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, w.RunWorkers(ctx, 2))
	}()

	assert.Eventually(t, func() bool {
		for _, ticket := range tickets {
			receipt, err := store.GetStatus(context.Background(), ticket)
			if err != nil || receipt.Status != domain.PublishStatusPublished {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	wg.Wait()
}

func TestRunWorkers_AutoClaimsAbandonedMessages(t *testing.T) {
	defer goleak.VerifyNone(t)

	q, store := testkit.NewQueue(), testkit.NewStatusStore()
	w := NewWorkers(&testkit.ListingClient{}, q, store, testGroup, 20*time.Millisecond, 1)

	enqueue(t, q, "t-1")
	// Delivered to a consumer that never acks.
	msg := deliver(t, q, task.TypePublishListing)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.RunWorkers(ctx, 1)
	}()

	assert.Eventually(t, func() bool {
		return q.Acked(msg.ID)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, domain.PublishStatusPublished, status(t, store, "t-1"))

	cancel()
	<-done
}
