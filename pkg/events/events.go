package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

// Event is one notification derived from a version-store commit, ready
// to be rendered onto a watch stream.
type Event struct {
	Type            types.WatchEventType
	GVK             types.GVK
	Key             types.ResourceKey
	ResourceVersion string
	Seq             uint64
	Timestamp       time.Time
	Object          json.RawMessage
}

const subscriptionBuffer = 100

// Subscription is a bounded, scoped event stream returned by
// Broker.Subscribe. GVK must match exactly; Namespace "" subscribes to
// every namespace of that GVK (and is the only valid value for
// cluster-scoped kinds).
type Subscription struct {
	GVK       types.GVK
	Namespace string

	ch         chan *Event
	mu         sync.Mutex
	overflowed bool
	lastRV     string
}

// Events returns the channel to range over for delivered events.
func (s *Subscription) Events() <-chan *Event { return s.ch }

// Overflowed reports whether this subscription has ever dropped an
// event. Once true it stays true: the caller must relist and
// re-subscribe to recover a consistent view.
func (s *Subscription) Overflowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overflowed
}

func (s *Subscription) matches(e *Event) bool {
	if s.GVK != e.GVK {
		return false
	}
	return s.Namespace == "" || s.Namespace == e.Key.Namespace
}

// deliver attempts a non-blocking send. Ordinary events fill all but the
// last slot of the buffer, which is kept free for the WatchGone event. Once
// no ordinary slot is left it marks the subscription overflowed and pushes
// a synthetic WatchGone event carrying the resourceVersion of the last
// event this subscription actually delivered, so the watcher can resume a
// fresh watch from that point instead of relisting blind.
func (s *Subscription) deliver(e *Event) {
	if len(s.ch) < cap(s.ch)-1 {
		select {
		case s.ch <- e:
			s.mu.Lock()
			s.lastRV = e.ResourceVersion
			s.mu.Unlock()
			return
		default:
		}
	}

	s.mu.Lock()
	alreadyOverflowed := s.overflowed
	s.overflowed = true
	lastRV := s.lastRV
	s.mu.Unlock()

	if alreadyOverflowed {
		return
	}

	gone := &Event{Type: types.WatchGone, GVK: s.GVK, ResourceVersion: lastRV, Timestamp: time.Now()}
	select {
	case s.ch <- gone:
	default:
	}
}

// Broker fans out Events to every Subscription whose scope matches,
// without blocking the publisher on a slow subscriber.
type Broker struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewBroker constructs an empty Broker. It needs no Start/Stop goroutine:
// Publish fans out synchronously under a read lock, since delivery
// itself is always non-blocking.
func NewBroker() *Broker {
	return &Broker{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new Subscription for the given scope.
func (b *Broker) Subscribe(gvk types.GVK, namespace string) *Subscription {
	sub := &Subscription{
		GVK:       gvk,
		Namespace: namespace,
		ch:        make(chan *Event, subscriptionBuffer),
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes and closes a Subscription. Safe to call once per
// Subscription; a second call is a no-op.
func (b *Broker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	_, ok := b.subs[sub]
	delete(b.subs, sub)
	b.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Publish fans e out to every matching, currently registered
// Subscription. It never blocks: a subscriber at capacity is handled per
// Subscription.deliver.
func (b *Broker) Publish(e *Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if sub.matches(e) {
			sub.deliver(e)
		}
	}
}

// SubscriberCount returns the number of currently registered
// subscriptions, used by pkg/metrics to gauge watch fan-out.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
