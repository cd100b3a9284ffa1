package queue

import (
	"fmt"

	"bookmarket/api/internal/domain/task"

	"github.com/redis/go-redis/v9"
)

// Stream message fields.
const (
	fieldType = "task_type"
	fieldData = "task_data"
)

// Encode turns a task into stream message values.
func Encode(t task.Task) (map[string]interface{}, error) {
	body, err := t.TaskValue()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", t.TaskType(), err)
	}
	return map[string]interface{}{
		fieldType: t.TaskType(),
		fieldData: string(body),
	}, nil
}

// Decode splits a stream message into its task type and raw body.
func Decode(msg *redis.XMessage) (string, []byte, error) {
	taskType, ok := msg.Values[fieldType].(string)
	if !ok {
		return "", nil, fmt.Errorf("invalid task type in message %s", msg.ID)
	}
	body, ok := msg.Values[fieldData].(string)
	if !ok {
		return "", nil, fmt.Errorf("invalid task data in message %s", msg.ID)
	}
	return taskType, []byte(body), nil
}
