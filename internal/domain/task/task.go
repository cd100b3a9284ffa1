package task

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrEmptyTask is returned when a stream message carries a JSON null
// instead of a task body.
var ErrEmptyTask = errors.New("task body is empty")

// Task is one unit of publish work. Its TaskType names the stream it lives on
// and TaskValue is the body stored alongside.
type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

// DefaultTaskValue encodes a task struct as JSON.
func DefaultTaskValue(task any) ([]byte, error) {
	return json.Marshal(task)
}

// UnmarshalTask decodes a body written by TaskValue.
func UnmarshalTask[T Task](data []byte) (T, error) {
	var t T
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return t, ErrEmptyTask
	}
	err := json.Unmarshal(data, &t)
	return t, err
}
