package mongodb

import (
	"context"
	"sync"
)

type changeEvent struct {
	collection string
	op         string
	id         string
}

// EventBuffer holds change events produced inside a transaction so they
// reach the sink only after the transaction commits. An aborted or
// retried transaction attempt must not leak events for writes that were
// never committed.
type EventBuffer struct {
	mu      sync.Mutex
	pending []changeEvent
}

type eventBufferKey struct{}

// WithEventBuffer attaches a fresh buffer to the context. Writes made with
// the returned context defer their change publication into the buffer.
func WithEventBuffer(ctx context.Context) (context.Context, *EventBuffer) {
	buf := &EventBuffer{}
	return context.WithValue(ctx, eventBufferKey{}, buf), buf
}

// EventBufferFrom extracts the buffer attached by WithEventBuffer, if any.
func EventBufferFrom(ctx context.Context) (*EventBuffer, bool) {
	buf, ok := ctx.Value(eventBufferKey{}).(*EventBuffer)
	return buf, ok
}

// Add records one change event.
func (b *EventBuffer) Add(collection, op, id string) {
	b.mu.Lock()
	b.pending = append(b.pending, changeEvent{collection: collection, op: op, id: id})
	b.mu.Unlock()
}

// Reset discards buffered events. Called before each transaction attempt
// so a retry does not publish the aborted attempt's writes twice.
func (b *EventBuffer) Reset() {
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()
}

// Flush delivers the buffered events to the sink in write order and
// empties the buffer.
func (b *EventBuffer) Flush(sink EventSink) {
	if sink == nil {
		return
	}
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, ev := range pending {
		sink.DocumentChanged(ev.collection, ev.op, ev.id)
	}
}
