package session

import (
	"sync"
	"testing"
	"time"

	"github.com/felipedec/airport/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestPlaceholderSession(t *testing.T) {
	c := NewContext()
	assert.Equal(t, "No session started", c.Name())
	assert.Zero(t, c.ID())
	assert.Zero(t, c.Uptime(time.Now()))
}

func TestSetResetsSpawnCount(t *testing.T) {
	c := NewContext()
	c.Spawned()
	c.Spawned()
	assert.Equal(t, uint64(2), c.SpawnCount())

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &model.Session{Name: "evening", StartedAt: start}
	s.ID = 4
	c.Set(s)

	assert.Equal(t, uint(4), c.ID())
	assert.Equal(t, "evening", c.Name())
	assert.Zero(t, c.SpawnCount())
	assert.Equal(t, 90*time.Second, c.Uptime(start.Add(90*time.Second)))
}

func TestConcurrentAccess(t *testing.T) {
	c := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Spawned()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Name()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(400), c.SpawnCount())
}
