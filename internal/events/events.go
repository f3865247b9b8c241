// Package events is the in-process pub/sub bus background features use to
// reach listeners (WebSocket clients, the REPL).
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/deskpilot/internal/metrics"
)

// Topics published by deskpilot components.
const (
	TopicCommandExecuted    = "command.executed"
	TopicSystemStats        = "system.stats"
	TopicDownloadsOrganized = "downloads.organized"
	TopicScheduleFired      = "schedule.fired"
)

// DefaultBuffer is the channel size of each subscription.
const DefaultBuffer = 64

// Event is one published message.
type Event struct {
	ID      string    `json:"id"`
	Topic   string    `json:"topic"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload"`
}

// Subscription receives events on C until Unsubscribe or Close.
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	topics map[string]bool
	bus    *Bus
	once   sync.Once
}

// Unsubscribe stops delivery and closes C.
func (s *Subscription) Unsubscribe() {
	s.bus.remove(s)
}

func (s *Subscription) wants(topic string) bool {
	return len(s.topics) == 0 || s.topics[topic]
}

// Bus fans events out to subscribers. A full subscriber channel drops the
// event for that subscriber; publishers never block.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	closed  bool
	dropped atomic.Uint64
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers for the given topics; no topics means every topic.
func (b *Bus) Subscribe(topics ...string) *Subscription {
	ch := make(chan Event, DefaultBuffer)
	sub := &Subscription{C: ch, ch: ch, topics: make(map[string]bool, len(topics)), bus: b}
	for _, t := range topics {
		sub.topics[t] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.once.Do(func() { close(ch) })
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Publish delivers payload to every interested subscriber.
func (b *Bus) Publish(topic string, payload any) {
	ev := Event{ID: uuid.NewString(), Topic: topic, Time: time.Now(), Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for sub := range b.subs {
		if !sub.wants(topic) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
			metrics.EventsDropped.Inc()
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close unsubscribes everyone. Publishing afterwards is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.once.Do(func() { close(sub.ch) })
	}
	b.subs = nil
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
	}
	s.once.Do(func() { close(s.ch) })
}
