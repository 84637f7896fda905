package session

import "sync"

// ExpiredReason classifies why a session ended from outside the manager.
type ExpiredReason string

const (
	// ReasonExpiredToken means the bearer token's expiry passed.
	ReasonExpiredToken ExpiredReason = "expired_token"
	// ReasonUnauthorized means the server rejected the token (401).
	ReasonUnauthorized ExpiredReason = "unauthorized"
)

// ExpiredEvent is broadcast when the transport layer detects a dead
// session. Message is shown to the user after the forced logout.
type ExpiredEvent struct {
	Reason  ExpiredReason
	Message string
}

// EventChannel is a process-wide broadcast of session-expired events.
// It decouples the transport layer, which has no session state, from the
// manager that owns it. Publish fires synchronously to current
// subscribers; there is no queuing or replay, so a handler registered
// after an event is not notified.
type EventChannel struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(ExpiredEvent)
}

// NewEventChannel returns an empty channel.
func NewEventChannel() *EventChannel {
	return &EventChannel{subs: make(map[int]func(ExpiredEvent))}
}

// Subscribe registers handler and returns a function that removes it.
// Unsubscribing twice is harmless.
func (c *EventChannel) Subscribe(handler func(ExpiredEvent)) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs[id] = handler
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Publish delivers event to every current subscriber, in subscription
// order, on the calling goroutine. Handlers may unsubscribe or publish
// from within the callback; the subscriber set is snapshotted first.
func (c *EventChannel) Publish(event ExpiredEvent) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	// Map iteration order is random; restore subscription order.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	handlers := make([]func(ExpiredEvent), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, c.subs[id])
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}
