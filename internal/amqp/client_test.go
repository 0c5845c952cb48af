package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

func TestBackoff(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, maxBackoff, maxBackoff}
	for attempt, d := range want {
		require.Equal(t, d, backoff(attempt), "attempt %d", attempt)
	}
	require.Equal(t, time.Second, backoff(-3))
	require.Equal(t, maxBackoff, backoff(40))
}

func TestIsConnectionError(t *testing.T) {
	require.False(t, isConnectionError(nil))
	require.True(t, isConnectionError(amqp091.ErrClosed))
	require.True(t, isConnectionError(fmt.Errorf("publish: %w", amqp091.ErrClosed)))
	for _, msg := range []string{"dial tcp: Connection Refused", "unexpected EOF", "write: broken pipe", "use of closed network connection"} {
		require.True(t, isConnectionError(errors.New(msg)), msg)
	}
	for _, msg := range []string{"invalid input", "PRECONDITION_FAILED - inequivalent arg"} {
		require.False(t, isConnectionError(errors.New(msg)), msg)
	}
}

func TestBreaker(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := newBreaker(3, time.Minute)
	b.now = func() time.Time { return now }

	require.True(t, b.Allow())
	b.Failure()
	b.Failure()
	require.True(t, b.Allow(), "below threshold")
	b.Failure()
	require.False(t, b.Allow())
	require.Equal(t, StateOpen, b.State())

	now = now.Add(30 * time.Second)
	require.False(t, b.Allow(), "still cooling down")

	now = now.Add(31 * time.Second)
	require.True(t, b.Allow())
	require.Equal(t, StateHalfOpen, b.State())

	// A failed trial publish reopens at once.
	b.Failure()
	require.Equal(t, StateOpen, b.State())

	now = now.Add(2 * time.Minute)
	require.True(t, b.Allow())
	b.Success()
	require.Equal(t, StateClosed, b.State())
	b.Failure()
	require.True(t, b.Allow(), "success resets the failure count")
}

func TestPublishGuards(t *testing.T) {
	newClient := func() *Client {
		return &Client{exchangeName: "fluxo", queueName: "fluxo.sync", breaker: newBreaker(maxFailures, openTimeout)}
	}

	t.Run("open circuit", func(t *testing.T) {
		c := newClient()
		for range maxFailures {
			c.breaker.Failure()
		}
		err := c.PublishEntryUpsert(context.Background(), 123, 1)
		require.ErrorIs(t, err, ErrCircuitOpen)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, newClient().PublishEntryDelete(ctx, 123), context.Canceled)
	})

	t.Run("no channel counts as failure", func(t *testing.T) {
		c := newClient()
		for range maxFailures {
			require.Error(t, c.PublishEntryUpsert(context.Background(), 1, 1))
		}
		require.Equal(t, StateOpen, c.breaker.State())
	})
}

func TestEntryEvents(t *testing.T) {
	up := NewUpsertEvent(12345, 2)
	require.Equal(t, ActionUpsert, up.Action)
	require.Equal(t, int64(2), up.Version)
	require.Equal(t, "entry.upsert", up.RoutingKey())
	require.NotEmpty(t, up.MessageID)
	require.WithinDuration(t, time.Now(), up.Timestamp, time.Second)

	del := NewDeleteEvent(7)
	require.NotEqual(t, up.MessageID, del.MessageID)
	require.Equal(t, "entry.delete", del.RoutingKey())

	body, err := del.ToJSON()
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	require.NotContains(t, raw, "version", "delete events omit the version")

	ev, err := EntryEventFromJSON(body)
	require.NoError(t, err)
	require.Equal(t, int64(7), ev.ID)
	require.Equal(t, ActionDelete, ev.Action)

	for _, b := range []string{
		`{"id": "not_a_number", "action": "upsert"}`,
		`{"id": 1, "action": "rename"}`,
		`{"id": 0, "action": "delete"}`,
	} {
		_, err := EntryEventFromJSON([]byte(b))
		require.Error(t, err, b)
	}
}
