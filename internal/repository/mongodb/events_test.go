package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	seen []changeEvent
}

func (s *recordingSink) DocumentChanged(collection, op, id string) {
	s.seen = append(s.seen, changeEvent{collection: collection, op: op, id: id})
}

func TestEventBufferFlushesInWriteOrder(t *testing.T) {
	ctx, buf := WithEventBuffer(context.Background())

	got, ok := EventBufferFrom(ctx)
	require.True(t, ok)
	require.Same(t, buf, got)

	buf.Add("input_applications", "add", "a1")
	buf.Add("costs", "add", "c1")

	sink := &recordingSink{}
	buf.Flush(sink)
	require.Len(t, sink.seen, 2)
	assert.Equal(t, changeEvent{"input_applications", "add", "a1"}, sink.seen[0])
	assert.Equal(t, changeEvent{"costs", "add", "c1"}, sink.seen[1])

	// Flushing again delivers nothing; the buffer was drained.
	buf.Flush(sink)
	assert.Len(t, sink.seen, 2)
}

func TestEventBufferResetDropsPending(t *testing.T) {
	_, buf := WithEventBuffer(context.Background())
	buf.Add("tasks", "add", "t1")
	buf.Reset()

	sink := &recordingSink{}
	buf.Flush(sink)
	assert.Empty(t, sink.seen)
}

func TestEventBufferFromPlainContext(t *testing.T) {
	_, ok := EventBufferFrom(context.Background())
	assert.False(t, ok)
}
