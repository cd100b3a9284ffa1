// Package testkit holds in-memory stand-ins for the Redis and listing
// service collaborators, for use in tests.
package testkit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bookmarket/api/internal/client"
	"bookmarket/api/internal/domain"
	"bookmarket/api/internal/domain/task"
	"bookmarket/api/internal/queue"
	"bookmarket/api/internal/state"

	"github.com/redis/go-redis/v9"
)

// Queue is an in-memory queue.Queue. Messages are delivered once and stay
// pending until acked.
type Queue struct {
	mu        sync.Mutex
	seq       int
	messages  map[string][]redis.XMessage
	delivered map[string]bool
	acked     map[string]bool
	AddErr    error
}

var _ queue.Queue = (*Queue)(nil)

func NewQueue() *Queue {
	return &Queue{
		messages:  make(map[string][]redis.XMessage),
		delivered: make(map[string]bool),
		acked:     make(map[string]bool),
	}
}

func (q *Queue) AddTask(ctx context.Context, t task.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.AddErr != nil {
		return "", q.AddErr
	}

	values, err := queue.Encode(t)
	if err != nil {
		return "", err
	}

	q.seq++
	id := fmt.Sprintf("%d-0", q.seq)
	stream := queue.StreamName(t.TaskType())
	q.messages[stream] = append(q.messages[stream], redis.XMessage{ID: id, Values: values})
	return id, nil
}

func (q *Queue) GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error) {
	q.mu.Lock()
	for _, msg := range q.messages[stream] {
		if !q.delivered[msg.ID] {
			q.delivered[msg.ID] = true
			q.mu.Unlock()
			return &msg, nil
		}
	}
	q.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Millisecond):
	}
	return nil, nil
}

func (q *Queue) AckTask(ctx context.Context, stream, group, msgID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked[msgID] = true
	return nil
}

func (q *Queue) CreateGroup(ctx context.Context, stream, group string) error {
	return nil
}

// AutoClaim hands back every delivered but unacked message.
func (q *Queue) AutoClaim(ctx context.Context, group, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var claimed []redis.XMessage
	for _, msg := range q.messages[stream] {
		if q.delivered[msg.ID] && !q.acked[msg.ID] {
			claimed = append(claimed, msg)
		}
	}
	return claimed, nil
}

func (q *Queue) EnsureStreamsExist(ctx context.Context) error {
	return nil
}

// Push appends a raw message to stream, bypassing task encoding.
func (q *Queue) Push(stream string, values map[string]interface{}) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	id := fmt.Sprintf("%d-0", q.seq)
	q.messages[stream] = append(q.messages[stream], redis.XMessage{ID: id, Values: values})
	return id
}

// Messages returns every message ever added to stream.
func (q *Queue) Messages(stream string) []redis.XMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]redis.XMessage{}, q.messages[stream]...)
}

func (q *Queue) Acked(msgID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.acked[msgID]
}

// StatusStore is an in-memory state.StatusStore.
type StatusStore struct {
	mu       sync.Mutex
	receipts map[string]domain.Receipt
	SetErr   error
}

var _ state.StatusStore = (*StatusStore)(nil)

func NewStatusStore() *StatusStore {
	return &StatusStore{receipts: make(map[string]domain.Receipt)}
}

func (s *StatusStore) GetStatus(ctx context.Context, ticket string) (*domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	receipt, ok := s.receipts[ticket]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", ticket, state.ErrUnknownTicket)
	}
	return &receipt, nil
}

func (s *StatusStore) SetStatus(ctx context.Context, receipt domain.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.receipts[receipt.Ticket] = receipt
	return nil
}

// ListingClient is a scripted client.ListingClient. Each call pops the next
// error from Errors; once they run out calls succeed.
type ListingClient struct {
	mu     sync.Mutex
	Errors []error
	Calls  []string
}

var _ client.ListingClient = (*ListingClient)(nil)

func (c *ListingClient) PublishListing(ctx context.Context, ticket string, draft domain.ListingDraft) (*client.PublishResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, ticket)
	if len(c.Errors) > 0 {
		err := c.Errors[0]
		c.Errors = c.Errors[1:]
		if err != nil {
			return nil, err
		}
	}
	return &client.PublishResult{ListingID: "lst-" + ticket, Status: "published"}, nil
}

func (c *ListingClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}
