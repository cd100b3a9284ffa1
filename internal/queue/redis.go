// Package queue carries publish tasks over Redis streams. Every task type has
// its own stream, read through one consumer group.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookmarket/api/internal/config"
	"bookmarket/api/internal/domain/task"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	StreamPrefix = "bookmarket:stream:"

	readBlock  = 5 * time.Second
	claimBatch = 10
)

// StreamName is the stream a task type is published on.
func StreamName(taskType string) string {
	return StreamPrefix + taskType
}

// TaskTypes lists every task type the workers consume.
var TaskTypes = []string{task.TypePublishListing, task.TypePublishRetry}

type Queue interface {
	// AddTask appends t to its stream and returns the message ID.
	AddTask(ctx context.Context, t task.Task) (string, error)
	// GetTask returns the next undelivered message, or nil when none arrived in time.
	GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error)
	AckTask(ctx context.Context, stream, group, msgID string) error
	CreateGroup(ctx context.Context, stream, group string) error
	// AutoClaim takes over messages left unacked for at least minIdleTime.
	AutoClaim(ctx context.Context, group, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error)
	EnsureStreamsExist(ctx context.Context) error
}

type RedisQueue struct {
	rdb   *redis.Client
	group string
}

// NewRedisQueue prepares every publish stream and its consumer group.
func NewRedisQueue(ctx context.Context, rdb *redis.Client, cfg config.RedisConfig) (*RedisQueue, error) {
	q := &RedisQueue{rdb: rdb, group: cfg.ConsumerGroup}
	if err := q.EnsureStreamsExist(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare publish streams: %w", err)
	}
	return q, nil
}

func (q *RedisQueue) CreateGroup(ctx context.Context, stream, group string) error {
	err := q.rdb.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

func (q *RedisQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	values, err := Encode(t)
	if err != nil {
		return "", err
	}

	stream := StreamName(t.TaskType())
	id, err := q.rdb.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: values}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to append to %s: %w", stream, err)
	}

	log.Debugf("📨 %s appended to %s as %s", t.TaskType(), stream, id)
	return id, nil
}

func (q *RedisQueue) GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error) {
	streams, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    readBlock,
	}).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", stream, err)
	case len(streams) == 0 || len(streams[0].Messages) == 0:
		return nil, nil
	}
	return &streams[0].Messages[0], nil
}

func (q *RedisQueue) AckTask(ctx context.Context, stream, group, msgID string) error {
	return q.rdb.XAck(ctx, stream, group, msgID).Err()
}

func (q *RedisQueue) AutoClaim(ctx context.Context, group, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error) {
	claimed, _, err := q.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdleTime,
		Start:    "0-0",
		Count:    claimBatch,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to auto-claim from %s: %w", stream, err)
	}
	return claimed, nil
}

func (q *RedisQueue) EnsureStreamsExist(ctx context.Context) error {
	for _, taskType := range TaskTypes {
		stream := StreamName(taskType)
		if err := q.CreateGroup(ctx, stream, q.group); err != nil {
			return fmt.Errorf("failed to create group %s on %s: %w", q.group, stream, err)
		}
		log.Infof("✅ Stream %s ready for group %s", stream, q.group)
	}
	return nil
}
