package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishReachesAllSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewInMemory(4)

	first, err := hub.Subscribe(ctx)
	require.NoError(t, err)
	second, err := hub.Subscribe(ctx)
	require.NoError(t, err)

	ev := Event{Kind: KindQueue, TenantID: "t1", At: time.Now()}
	require.NoError(t, hub.Publish(ctx, ev))

	for _, ch := range []<-chan Event{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, KindQueue, got.Kind)
			assert.Equal(t, "t1", got.TenantID)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestInMemoryPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewInMemory(1)
	_, err := hub.Subscribe(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = hub.Publish(ctx, Event{Kind: KindRoster, TenantID: "t1"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}

func TestInMemoryPublishHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hub := NewInMemory(1)
	assert.Error(t, hub.Publish(ctx, Event{Kind: KindHistory}))
}
