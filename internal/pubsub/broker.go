package pubsub

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer bounds the per-subscriber queue. A slow consumer loses
// the oldest pending event instead of blocking publishers.
const subscriberBuffer = 16

// Event is a published payload tagged with its topic.
type Event struct {
	Topic   string
	Payload interface{}
}

// Broker is an in-memory topic registry. It is constructed once at startup
// and injected into everything that publishes or subscribes; delivery is
// at-most-once with no replay for late subscribers.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*Subscription
	closed      bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string]map[string]*Subscription),
	}
}

// Subscription is a live event stream for a single subscriber on one topic.
type Subscription struct {
	id     string
	topic  string
	broker *Broker
	ch     chan Event
	once   sync.Once
}

// C returns the event channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
		close(s.ch)
	})
}

// Subscribe registers a new listener on a topic.
func (b *Broker) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		topic:  topic,
		broker: b,
		ch:     make(chan Event, subscriberBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		sub.once.Do(func() {})
		return sub
	}

	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[string]*Subscription)
	}
	b.subscribers[topic][sub.id] = sub

	return sub
}

// Publish delivers the payload to every current subscriber on the topic.
// It never blocks: when a subscriber's buffer is full the oldest pending
// event is dropped to make room.
func (b *Broker) Publish(topic string, payload interface{}) {
	ev := Event{Topic: topic, Payload: payload}

	// Sends happen under the read lock so a channel can never be closed
	// mid-send; they are non-blocking, so the lock is held only briefly.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers[topic] {
		select {
		case sub.ch <- ev:
		default:
			select {
			case <-sub.ch:
				log.Printf("Dropped oldest event for slow subscriber %s on %s", sub.id, topic)
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
}

// Close shuts the broker down and ends every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	subs := make([]*Subscription, 0)
	for _, topicSubs := range b.subscribers {
		for _, sub := range topicSubs {
			subs = append(subs, sub)
		}
	}
	b.subscribers = make(map[string]map[string]*Subscription)
	b.closed = true
	b.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() {
			close(sub.ch)
		})
	}
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if topicSubs, exists := b.subscribers[sub.topic]; exists {
		delete(topicSubs, sub.id)
		if len(topicSubs) == 0 {
			delete(b.subscribers, sub.topic)
		}
	}
}
