// Package events fans the node's activity messages out to subscribers such
// as the websocket viewers attached to the public API.
package events

import (
	"fmt"
	"sync"
)

// subscriberBuffer is how many messages a subscriber can fall behind before
// messages sent to it are dropped.
const subscriberBuffer = 100

// Events holds one buffered channel per subscriber id.
type Events struct {
	m  map[string]chan string
	mu sync.RWMutex
}

// New returns an Events with no subscribers.
func New() *Events {
	return &Events{
		m: make(map[string]chan string),
	}
}

// Shutdown unsubscribes everyone, closing each subscriber channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire subscribes the id and returns its channel. Acquiring an id that
// is already subscribed returns the existing channel.
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.m[id]; exists {
		return ch
	}

	ch := make(chan string, subscriberBuffer)
	evt.m[id] = ch

	return ch
}

// Release unsubscribes the id and closes its channel.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("subscriber %q not found", id)
	}

	delete(evt.m, id)
	close(ch)

	return nil
}

// Count returns the number of subscribers.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send delivers the message to every subscriber without waiting. A
// subscriber whose buffer is full misses the message.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- s:
		default:
		}
	}
}
