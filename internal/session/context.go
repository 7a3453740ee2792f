package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/felipedec/airport/internal/model"
)

// Context holds the current session.
type Context struct {
	mu      sync.RWMutex
	session *model.Session
	spawned atomic.Uint64
}

// NewContext creates a Context with a placeholder session.
func NewContext() *Context {
	return &Context{
		session: &model.Session{Name: "No session started"},
	}
}

// Get returns the current session.
func (c *Context) Get() *model.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Set replaces the current session and resets the spawn counter.
func (c *Context) Set(s *model.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	c.spawned.Store(0)
}

func (c *Context) ID() uint {
	return c.Get().ID
}

func (c *Context) Name() string {
	return c.Get().Name
}

// Uptime is the wall time since the session started.
func (c *Context) Uptime(now time.Time) time.Duration {
	s := c.Get()
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// Spawned counts one more aircraft and returns the total.
func (c *Context) Spawned() uint64 {
	return c.spawned.Add(1)
}

// SpawnCount returns the aircraft created in this session.
func (c *Context) SpawnCount() uint64 {
	return c.spawned.Load()
}
