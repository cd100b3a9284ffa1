package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalTask_RoundTrip(t *testing.T) {
	data, err := (&PublishRetryTask{Ticket: "t-1", RetryCount: 2, Error: "502"}).TaskValue()
	require.NoError(t, err)

	decoded, err := UnmarshalTask[*PublishRetryTask](data)
	require.NoError(t, err)
	assert.Equal(t, "t-1", decoded.Ticket)
	assert.Equal(t, 2, decoded.RetryCount)
}

func TestUnmarshalTask_EmptyBodies(t *testing.T) {
	for _, body := range []string{"null", " null\n", ""} {
		decoded, err := UnmarshalTask[*PublishListingTask]([]byte(body))
		assert.ErrorIs(t, err, ErrEmptyTask, "body %q", body)
		assert.Nil(t, decoded)
	}
}
