package console

import (
	"sync"

	"github.com/kuntur-security/kuntur-console/internal/alert"
)

// subscriberBuffer is how many undelivered alerts a slow subscriber may lag
// behind before newer alerts are dropped for it.
const subscriberBuffer = 8

// Notifier fans newly arrived alerts out to subscribers, typically UI clients
// attached over the push WebSocket endpoint. Publishing never blocks the
// delivery pipeline: a subscriber that stops draining its channel loses
// alerts rather than stalling the poller.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]chan alert.Alert
	nextID int
	closed bool
}

// NewNotifier creates a notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[int]chan alert.Alert),
	}
}

// Subscribe registers a new subscriber and returns its channel together with
// a cancel function. The channel is closed on cancel and on notifier Close.
func (n *Notifier) Subscribe() (<-chan alert.Alert, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan alert.Alert, subscriberBuffer)
	if n.closed {
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers an alert to every subscriber without blocking.
func (n *Notifier) Publish(a alert.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- a:
		default:
			// Subscriber is not keeping up; drop for it
		}
	}
}

// Close closes all subscriber channels and rejects future subscriptions.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true

	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
