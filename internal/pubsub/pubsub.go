// Package pubsub implements the publish/subscribe broker: exact-match and
// glob-pattern channel subscriptions, bounded per-subscriber queues, and
// channel-name interning so subscribers of the same channel share one copy
// of its name.
package pubsub

import (
	"sync"
	"sync/atomic"

	"github.com/ryanuber/go-glob"
)

// DefaultQueueCap is the default bounded-queue capacity for a subscriber.
const DefaultQueueCap = 256

// Message is one delivered publication.
type Message struct {
	Channel string
	Payload []byte
}

// Subscriber is a registered receiver. Publish sends into Messages on a
// best-effort, non-blocking basis: if the queue is full the message is
// dropped for that subscriber and Dropped is incremented.
type Subscriber struct {
	id       uint64
	Messages chan Message
	Dropped  atomic.Uint64
}

func newSubscriber(id uint64, cap int) *Subscriber {
	return &Subscriber{id: id, Messages: make(chan Message, cap)}
}

func (s *Subscriber) deliver(m Message) bool {
	select {
	case s.Messages <- m:
		return true
	default:
		s.Dropped.Add(1)
		return false
	}
}

// internedChannel is a process-wide pool of channel name strings so
// registry keys compare cheaply; Go string interning here is simply
// "store one canonical copy and reuse it", since Go strings are already
// immutable and comparison is value-based, not pointer-based like the
// Arc<str> the original design describes — the pool's real benefit is
// avoiding duplicate channel-name allocations across many subscribers.
// UnsubscribeAll removes the channel's name from the pool.
var channelPool sync.Map // string -> string

func intern(name string) string {
	if v, ok := channelPool.Load(name); ok {
		return v.(string)
	}
	actual, _ := channelPool.LoadOrStore(name, name)
	return actual.(string)
}

type patternSub struct {
	pattern string
	sub     *Subscriber
}

// Broker is the channel/pattern subscription registry. Its registries are
// guarded by their own mutex, independent of the storage engine's
// striped locks: publishers and subscribers never take a key-stripe lock.
type Broker struct {
	mu       sync.RWMutex
	exact    map[string]map[uint64]*Subscriber
	patterns []patternSub
	queueCap int
	nextID   atomic.Uint64
}

// NewBroker creates an empty broker. queueCap <= 0 selects DefaultQueueCap.
func NewBroker(queueCap int) *Broker {
	if queueCap <= 0 {
		queueCap = DefaultQueueCap
	}
	return &Broker{exact: make(map[string]map[uint64]*Subscriber), queueCap: queueCap}
}

// Subscribe registers a new exact-match subscriber to channel.
func (b *Broker) Subscribe(channel string) *Subscriber {
	channel = intern(channel)
	sub := newSubscriber(b.nextID.Add(1), b.queueCap)
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.exact[channel]
	if !ok {
		set = make(map[uint64]*Subscriber)
		b.exact[channel] = set
	}
	set[sub.id] = sub
	return sub
}

// PSubscribe registers a new glob-pattern subscriber.
func (b *Broker) PSubscribe(pattern string) *Subscriber {
	sub := newSubscriber(b.nextID.Add(1), b.queueCap)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.patterns = append(b.patterns, patternSub{pattern: pattern, sub: sub})
	return sub
}

// Unsubscribe removes sub from channel's exact subscriber set.
func (b *Broker) Unsubscribe(channel string, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.exact[channel]; ok {
		delete(set, sub.id)
		if len(set) == 0 {
			delete(b.exact, channel)
		}
	}
}

// PUnsubscribe removes sub from the pattern subscriber list.
func (b *Broker) PUnsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ps := range b.patterns {
		if ps.sub.id == sub.id {
			b.patterns = append(b.patterns[:i], b.patterns[i+1:]...)
			return
		}
	}
}

// UnsubscribeAll drops every subscriber registered to channel outright and
// sweeps the channel's name from the intern pool.
func (b *Broker) UnsubscribeAll(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.exact, channel)
	channelPool.Delete(channel)
}

// Publish delivers payload to every exact subscriber of channel and every
// pattern subscriber whose pattern matches channel, returning the number
// of successful (non-dropped) deliveries.
func (b *Broker) Publish(channel string, payload []byte) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	m := Message{Channel: channel, Payload: payload}
	if set, ok := b.exact[channel]; ok {
		for _, sub := range set {
			if sub.deliver(m) {
				delivered++
			}
		}
	}
	for _, ps := range b.patterns {
		if glob.Glob(ps.pattern, channel) {
			if ps.sub.deliver(m) {
				delivered++
			}
		}
	}
	return delivered
}

// ChannelCount returns the number of channels with at least one exact
// subscriber, for introspection commands (PUBSUB CHANNELS-style).
func (b *Broker) ChannelCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.exact)
}
