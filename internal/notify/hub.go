// Package notify distributes change events for the live queue. The
// public board is a pure projection of storage, so writers only
// announce that something changed; subscribers (the board snapshot
// cache, websocket fan-out, …) recompute from storage on receipt.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventKind names the collection that changed.
type EventKind string

const (
	KindQueue   EventKind = "queue"
	KindRoster  EventKind = "roster"
	KindHistory EventKind = "history"
)

// Event announces a change in a tenant's data. It carries no payload
// beyond identity; consumers re-read the source of truth.
type Event struct {
	Kind     EventKind `json:"kind"`
	TenantID string    `json:"tenant_id"`
	At       time.Time `json:"at"`
}

// Hub is the abstraction over different fan-out backends.
type Hub interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// InMemory is a channel-backed hub for single-node deployments and tests.
type InMemory struct {
	mu     sync.Mutex
	subs   []chan Event
	buffer int
}

// NewInMemory creates a hub whose subscriber channels hold up to
// buffer undelivered events; overflowing subscribers drop events
// rather than block writers.
func NewInMemory(buffer int) *InMemory {
	if buffer <= 0 {
		buffer = 16
	}
	return &InMemory{buffer: buffer}
}

// Publish fans the event out to every subscriber.
func (h *InMemory) Publish(ctx context.Context, ev Event) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a new consumer; the channel closes when ctx ends.
func (h *InMemory) Subscribe(ctx context.Context) (<-chan Event, error) {
	sub := make(chan Event, h.buffer)
	h.mu.Lock()
	h.subs = append(h.subs, sub)
	h.mu.Unlock()

	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case ev := <-sub:
				select {
				case out <- ev:
				case <-ctx.Done():
					h.remove(sub)
					return
				}
			case <-ctx.Done():
				h.remove(sub)
				return
			}
		}
	}()
	return out, nil
}

func (h *InMemory) remove(sub chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s == sub {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return
		}
	}
}

// RedisHub fans events out over a Redis pub/sub channel so every API
// node invalidates its board snapshot.
type RedisHub struct {
	client  *redis.Client
	channel string
}

// NewRedisHub builds a hub on the given pub/sub channel.
func NewRedisHub(client *redis.Client, channel string) *RedisHub {
	if channel == "" {
		channel = "izin:board:changed"
	}
	return &RedisHub{client: client, channel: channel}
}

// Publish broadcasts the event to all nodes.
func (h *RedisHub) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal notify event: %w", err)
	}
	return h.client.Publish(ctx, h.channel, data).Err()
}

// Subscribe streams events published by any node.
func (h *RedisHub) Subscribe(ctx context.Context) (<-chan Event, error) {
	sub := h.client.Subscribe(ctx, h.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", h.channel, err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
