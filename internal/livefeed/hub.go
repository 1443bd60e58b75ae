package livefeed

import (
	"sync"

	"go.uber.org/zap"
)

// Event is one live update pushed to subscribers. Type is the change kind
// ("add", "update", "archive", "notification"), Collection and ID locate
// the affected document, Data carries an optional payload.
type Event struct {
	Type       string `json:"type"`
	Collection string `json:"collection,omitempty"`
	ID         string `json:"id,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// Hub fans document-change events out to per-topic subscriber channels.
// Subscriptions must be cancelled by the owning view when it goes away;
// the hub never retries or re-establishes a dropped subscriber.
type Hub struct {
	log *zap.Logger

	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{} // topic -> set(ch)
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		log:  logger,
		subs: map[string]map[chan Event]struct{}{},
	}
}

// Subscribe registers a buffered channel on every given topic and returns
// it with a cancel function. Cancel is idempotent per subscription and
// closes the channel.
func (h *Hub) Subscribe(topics []string, buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan Event, buf)

	h.mu.Lock()
	for _, t := range topics {
		if h.subs[t] == nil {
			h.subs[t] = map[chan Event]struct{}{}
		}
		h.subs[t][ch] = struct{}{}
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			for _, t := range topics {
				if set, ok := h.subs[t]; ok {
					delete(set, ch)
					if len(set) == 0 {
						delete(h.subs, t)
					}
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Broadcast delivers the event to every subscriber of the topic. Slow
// consumers are skipped rather than blocked on.
func (h *Hub) Broadcast(topic string, ev Event) {
	h.mu.RLock()
	set := h.subs[topic]
	h.mu.RUnlock()

	for ch := range set {
		select {
		case ch <- ev:
		default:
			h.log.Debug("dropping event for slow subscriber", zap.String("topic", topic))
		}
	}
}

// DocumentChanged publishes a document-store change on the collection's
// topic. It satisfies the store's event sink so every committed write is
// observed by live subscriptions.
func (h *Hub) DocumentChanged(collection, op, id string) {
	h.Broadcast(TopicCollection(collection), Event{Type: op, Collection: collection, ID: id})
}

/* ---- topic helpers ---- */

// TopicCollection is the live topic for one entity collection.
func TopicCollection(name string) string { return "collection:" + name }

// TopicUser is the private topic for one user (task updates, toasts).
func TopicUser(userID string) string { return "user:" + userID }
