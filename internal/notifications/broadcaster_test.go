package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var ev struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(msg, &ev))
		var payload any
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		return Event{Type: ev.Type, Payload: payload}
	case <-time.After(testEventuallyTimeout):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcaster_LocalDeliveryKeepsOrder(t *testing.T) {
	hub := NewHub(0)
	defer func() { _ = hub.Shutdown(context.Background()) }()
	client := register(t, hub)

	b := NewBroadcaster(hub, nil, 16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	for i := 1; i <= 10; i++ {
		require.True(t, b.Publish(Event{Type: EventUpdatePost, Payload: map[string]int{"likes": i}}))
	}

	for i := 1; i <= 10; i++ {
		ev := receive(t, client)
		assert.Equal(t, EventUpdatePost, ev.Type)
		assert.Equal(t, float64(i), ev.Payload.(map[string]any)["likes"])
	}
}

func TestBroadcaster_PublishDropsWhenQueueFull(t *testing.T) {
	b := NewBroadcaster(NewHub(0), nil, 2, nil)

	assert.True(t, b.Publish(Event{Type: EventUpdatePost}))
	assert.True(t, b.Publish(Event{Type: EventUpdatePost}))
	assert.False(t, b.Publish(Event{Type: EventUpdatePost}))
}

func TestBroadcaster_RunFlushesOnCancel(t *testing.T) {
	hub := NewHub(0)
	defer func() { _ = hub.Shutdown(context.Background()) }()
	client := register(t, hub)

	b := NewBroadcaster(hub, nil, 8, nil)
	b.Publish(Event{Type: EventUpdatePost, Payload: 1})
	b.Publish(Event{Type: EventDeletePost, Payload: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Run(ctx)

	select {
	case <-b.Done():
	default:
		t.Fatal("done channel not closed")
	}
	assert.Len(t, client.Send, 2)
}

func TestBroadcaster_RedisPathDeliversOnce(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewHub(0)
	defer func() { _ = hub.Shutdown(context.Background()) }()
	client := register(t, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := NewNotifier(rdb, "")
	require.NoError(t, hub.StartWiring(ctx, notifier))

	b := NewBroadcaster(hub, notifier, 16, nil)
	go b.Run(ctx)

	b.Publish(Event{Type: EventUpdatePost, Payload: map[string]int{"id": 1}})
	b.Publish(Event{Type: EventDeletePost, Payload: map[string]int{"id": 1}})

	assert.Equal(t, EventUpdatePost, receive(t, client).Type)
	assert.Equal(t, EventDeletePost, receive(t, client).Type)

	// The event came back through the subscription only, never twice.
	assert.Never(t, func() bool { return len(client.Send) > 0 }, 10*testPollInterval, testPollInterval)
}

func TestBroadcaster_FallsBackToHubWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = rdb.Close() }()
	mr.Close()

	hub := NewHub(0)
	defer func() { _ = hub.Shutdown(context.Background()) }()
	client := register(t, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroadcaster(hub, NewNotifier(rdb, ""), 4, nil)
	go b.Run(ctx)

	b.Publish(Event{Type: EventDeletePost, Payload: map[string]int{"id": 3}})
	assert.Equal(t, EventDeletePost, receive(t, client).Type)
}
