package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookmarket/api/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ErrUnknownTicket is returned for tickets that were never issued or have expired.
var ErrUnknownTicket = errors.New("unknown listing ticket")

// StatusStore tracks the outcome of queued publish requests by ticket.
type StatusStore interface {
	GetStatus(ctx context.Context, ticket string) (*domain.Receipt, error)
	SetStatus(ctx context.Context, receipt domain.Receipt) error
}

type redisStatusStore struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

// NewRedisStatusStore keeps receipts for ttl; zero keeps them forever.
func NewRedisStatusStore(redisClient *redis.Client, ttl time.Duration) StatusStore {
	return &redisStatusStore{
		redisClient: redisClient,
		keyPrefix:   "bookmarket:listing:status:",
		ttl:         ttl,
	}
}

func (s *redisStatusStore) GetStatus(ctx context.Context, ticket string) (*domain.Receipt, error) {
	val, err := s.redisClient.Get(ctx, s.keyPrefix+ticket).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("ticket %s: %w", ticket, ErrUnknownTicket)
		}
		return nil, fmt.Errorf("failed to get status for ticket %s: %w", ticket, err)
	}

	var receipt domain.Receipt
	if err := json.Unmarshal(val, &receipt); err != nil {
		return nil, fmt.Errorf("failed to decode status for ticket %s: %w", ticket, err)
	}

	return &receipt, nil
}

func (s *redisStatusStore) SetStatus(ctx context.Context, receipt domain.Receipt) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to encode status for ticket %s: %w", receipt.Ticket, err)
	}

	if err := s.redisClient.Set(ctx, s.keyPrefix+receipt.Ticket, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set status for ticket %s: %w", receipt.Ticket, err)
	}
	return nil
}
