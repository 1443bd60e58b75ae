package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovida/hidrofresa/internal/livefeed"
)

type captureHub struct {
	events []livefeed.Event
}

func (h *captureHub) Broadcast(topic string, ev livefeed.Event) {
	h.events = append(h.events, ev)
}

func TestPushStacksAndBroadcasts(t *testing.T) {
	hub := &captureHub{}
	c := NewCenter(hub, nil)

	c.Push("u1", "first", LevelInfo, 0)
	c.Push("u1", "second", LevelError, 0)

	active := c.Active("u1")
	require.Len(t, active, 2)
	assert.Equal(t, "first", active[0].Message)
	assert.Equal(t, "second", active[1].Message)
	assert.Equal(t, LevelError, active[1].Level)
	require.Len(t, hub.events, 2)
	assert.Equal(t, "notification", hub.events[0].Type)
}

func TestDismissRemovesSingleNotification(t *testing.T) {
	c := NewCenter(&captureHub{}, nil)

	a := c.Push("u1", "keep", LevelInfo, 0)
	b := c.Push("u1", "drop", LevelWarning, 0)

	c.Dismiss("u1", b.ID)

	active := c.Active("u1")
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)
}

func TestZeroDurationPersistsUntilDismissed(t *testing.T) {
	c := NewCenter(&captureHub{}, nil)

	n := c.Push("u1", "uploading photo...", LevelInfo, 0)

	time.Sleep(20 * time.Millisecond)
	require.Len(t, c.Active("u1"), 1, "sticky toast must not expire")

	c.Dismiss("u1", n.ID)
	assert.Empty(t, c.Active("u1"))
}

func TestAutoDismissAfterDuration(t *testing.T) {
	c := NewCenter(&captureHub{}, nil)

	c.Push("u1", "short lived", LevelSuccess, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return len(c.Active("u1")) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestNotificationsAreScopedPerUser(t *testing.T) {
	c := NewCenter(&captureHub{}, nil)

	c.Push("u1", "for one", LevelInfo, 0)

	assert.Len(t, c.Active("u1"), 1)
	assert.Empty(t, c.Active("u2"))
}
