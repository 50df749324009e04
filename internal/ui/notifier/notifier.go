// Package notifier provides a broadcast mechanism for SSE updates.
package notifier

import "sync"

// Event identifies which slice of dashboard state changed. Listeners
// re-query the corresponding store rather than receiving payloads.
type Event int

const (
	// StatusChanged fires when the pipeline status moves between states.
	StatusChanged Event = iota
	// RunsChanged fires when run history gains or completes an entry.
	RunsChanged
	// DataChanged fires when warehouse contents were rewritten.
	DataChanged
)

// String returns a short name for logging.
func (e Event) String() string {
	switch e {
	case StatusChanged:
		return "status"
	case RunsChanged:
		return "runs"
	case DataChanged:
		return "data"
	default:
		return "unknown"
	}
}

// Notifier fans events out to all subscribed listeners.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives events as they are broadcast.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 8)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast delivers each event to every listener.
// Non-blocking: if a listener's buffer is full the event is skipped,
// and the listener catches up on its next received event by re-querying.
func (n *Notifier) Broadcast(events ...Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
