// Package notify implements the per-user notification center: transient,
// individually dismissible toasts pushed over the live feed.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/livefeed"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one toast. Duration zero means it persists until
// explicitly dismissed (used for long-running operations).
type Notification struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Level     Level         `json:"level"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Broadcaster is the slice of the live feed hub the center needs.
type Broadcaster interface {
	Broadcast(topic string, ev livefeed.Event)
}

// Center tracks active notifications per user and pushes them on the
// user's private topic.
type Center struct {
	hub    Broadcaster
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	mu     sync.Mutex
	active map[string][]Notification // userID -> stacked toasts
	timers map[string]*time.Timer    // notification id -> expiry
}

// NewCenter wires a notification center over the given broadcaster.
func NewCenter(hub Broadcaster, logger *zap.Logger) *Center {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Center{
		hub:    hub,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		active: map[string][]Notification{},
		timers: map[string]*time.Timer{},
	}
}

// Push adds a notification for the user and schedules auto-dismissal when
// duration is positive.
func (c *Center) Push(userID, message string, level Level, duration time.Duration) Notification {
	n := Notification{
		ID:        c.newID(),
		Message:   message,
		Level:     level,
		Duration:  duration,
		CreatedAt: c.now(),
	}

	c.mu.Lock()
	c.active[userID] = append(c.active[userID], n)
	if duration > 0 {
		id := n.ID
		c.timers[id] = time.AfterFunc(duration, func() { c.Dismiss(userID, id) })
	}
	c.mu.Unlock()

	if c.hub != nil {
		c.hub.Broadcast(livefeed.TopicUser(userID), livefeed.Event{Type: "notification", ID: n.ID, Data: n})
	}
	return n
}

// Success, Info, Warning and Error push a toast with the default duration.

func (c *Center) Success(userID, message string) Notification {
	return c.Push(userID, message, LevelSuccess, 5*time.Second)
}

func (c *Center) Info(userID, message string) Notification {
	return c.Push(userID, message, LevelInfo, 5*time.Second)
}

func (c *Center) Warning(userID, message string) Notification {
	return c.Push(userID, message, LevelWarning, 5*time.Second)
}

func (c *Center) Error(userID, message string) Notification {
	return c.Push(userID, message, LevelError, 5*time.Second)
}

// Dismiss removes one notification from the user's stack.
func (c *Center) Dismiss(userID, id string) {
	c.mu.Lock()
	list := c.active[userID]
	for i, n := range list {
		if n.ID == id {
			c.active[userID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(c.active[userID]) == 0 {
		delete(c.active, userID)
	}
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	c.mu.Unlock()

	if c.hub != nil {
		c.hub.Broadcast(livefeed.TopicUser(userID), livefeed.Event{Type: "notification.dismiss", ID: id})
	}
}

// Active returns the user's current notification stack, oldest first.
func (c *Center) Active(userID string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.active[userID]...)
}
