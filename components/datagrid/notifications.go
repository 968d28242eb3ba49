package datagrid

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultNotificationTTL is how long a toast stays visible.
const DefaultNotificationTTL = 3500 * time.Millisecond

// NotificationKind classifies a toast.
type NotificationKind string

const (
	KindError   NotificationKind = "error"
	KindWarning NotificationKind = "warning"
	KindSuccess NotificationKind = "success"
)

// Notification is a single ephemeral message.
type Notification struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"kind"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationListener observes the channel. visible is false once the toast is gone.
type NotificationListener func(n Notification, visible bool)

// NotificationChannel is a single-slot toast surface. A new Show replaces the
// current message and restarts the dismiss timer.
type NotificationChannel struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	ttl      time.Duration
	current  *Notification
	timer    clockwork.Timer
	seq      uint64
	listener NotificationListener
}

// NotificationOption customizes the channel.
type NotificationOption func(*NotificationChannel)

// WithNotificationClock swaps the clock used for timestamps and the dismiss timer.
func WithNotificationClock(clock clockwork.Clock) NotificationOption {
	return func(c *NotificationChannel) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithNotificationTTL overrides the dismiss delay.
func WithNotificationTTL(ttl time.Duration) NotificationOption {
	return func(c *NotificationChannel) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithNotificationListener registers a callback for show/hide transitions.
func WithNotificationListener(fn NotificationListener) NotificationOption {
	return func(c *NotificationChannel) {
		c.listener = fn
	}
}

// NewNotificationChannel builds a hidden channel.
func NewNotificationChannel(opts ...NotificationOption) *NotificationChannel {
	c := &NotificationChannel{
		clock: clockwork.NewRealClock(),
		ttl:   DefaultNotificationTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show replaces any visible notification and restarts the dismiss timer.
func (c *NotificationChannel) Show(message string, kind NotificationKind) Notification {
	c.mu.Lock()
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: c.clock.Now(),
	}
	c.stopTimerLocked()
	c.seq++
	seq := c.seq
	c.current = &n
	c.timer = c.clock.AfterFunc(c.ttl, func() { c.expire(seq) })
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener(n, true)
	}
	return n
}

// Dismiss hides the visible notification and cancels its timer.
func (c *NotificationChannel) Dismiss() {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	c.seq++
	n := *c.current
	c.current = nil
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener(n, false)
	}
}

// Current returns the visible notification, if any.
func (c *NotificationChannel) Current() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Notification{}, false
	}
	return *c.current, true
}

// Visible reports whether a notification is showing.
func (c *NotificationChannel) Visible() bool {
	_, ok := c.Current()
	return ok
}

func (c *NotificationChannel) expire(seq uint64) {
	c.mu.Lock()
	// a timer that lost the race with Show/Dismiss must not hide the newer toast
	if seq != c.seq || c.current == nil {
		c.mu.Unlock()
		return
	}
	n := *c.current
	c.current = nil
	c.timer = nil
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener(n, false)
	}
}

func (c *NotificationChannel) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// activeTimers is used by tests to assert the single-timer invariant.
func (c *NotificationChannel) activeTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer == nil {
		return 0
	}
	return 1
}
