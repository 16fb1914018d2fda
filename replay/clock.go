package replay

import (
	"sync"
	"time"
)

// Clock replays recorded time: Now returns the timestamp of the most
// recently applied event, so documents built during a replay carry the
// original run's timings instead of the replay's. Before any timestamped
// event arrives it falls back to the wall clock.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// Advance moves the clock to t. Zero timestamps (events recorded without
// one) leave it unchanged.
func (c *Clock) Advance(t time.Time) {
	if t.IsZero() {
		return
	}
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.IsZero() {
		return time.Now()
	}
	return c.current
}
