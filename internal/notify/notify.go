package notify

import "sync"

// EventType classifies outbound notifications to the UI shell.
type EventType string

const (
	// EventFetchProgress announces that an account's fetch run is starting.
	EventFetchProgress EventType = "fetch_progress"

	// EventFetchCompleted announces that an account's fetch run finished.
	// Published once per account, after any error event for that account.
	EventFetchCompleted EventType = "fetch_completed"

	// EventFetchError carries a per-account failure. Message is a message key
	// localized by the caller, not display text.
	EventFetchError EventType = "fetch_error"

	// EventCodeRequested asks the operator for a one-time code or a
	// security-question answer.
	EventCodeRequested EventType = "code_requested"
)

// Event is one fire-and-forget notification.
type Event struct {
	Type        EventType `json:"type"`
	Message     string    `json:"message,omitempty"`
	AccountID   string    `json:"account_id,omitempty"`
	AccountName string    `json:"account_name,omitempty"`
	Question    string    `json:"question,omitempty"`
}

// Notifier is the outbound notification sink consumed by the core.
type Notifier interface {
	// Publish delivers an event without blocking the caller.
	// Parameters:
	//   - e: event to deliver.
	// Returns: none.
	Publish(e Event)
}

// Hub fans events out to subscribers (the SSE endpoint, tests). Slow
// subscribers drop events rather than stall the orchestrator.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub creates a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber.
// Parameters: none.
// Returns:
//   - <-chan Event: buffered event stream.
//   - func(): cancel function to unsubscribe and close the stream.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers, dropping it for any whose
// buffer is full.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// NopNotifier discards all events. Used by one-shot CLI runs and tests that
// do not observe notifications.
type NopNotifier struct{}

// Publish discards the event.
func (NopNotifier) Publish(Event) {}
