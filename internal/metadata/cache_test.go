package metadata

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is safe for the sweeper goroutine
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCache_SetGet(t *testing.T) {
	c := NewCache[int](time.Minute)
	defer c.Stop()

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := newCache[string](10*time.Second, clock.Now)
	defer c.Stop()

	c.Set("k", "v")
	clock.Advance(5 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(6 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)

	assert.Equal(t, 1, c.Len())
	c.removeExpired()
	assert.Equal(t, 0, c.Len())
}

func TestCache_DeletePrefix(t *testing.T) {
	c := NewCache[int](time.Minute)
	defer c.Stop()

	c.Set("/dbstats/datasets/a", 1)
	c.Set("/dbstats/datasets/b", 2)
	c.Set("/other/c", 3)

	c.DeletePrefix("/dbstats/")
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("/other/c")
	assert.True(t, ok)

	c.Delete("/other/c")
	assert.Equal(t, 0, c.Len())
}

func TestCache_StopTwice(t *testing.T) {
	c := NewCache[int](time.Second)
	c.Stop()
	assert.NotPanics(t, c.Stop)
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, time.Minute, sweepInterval(0))
	assert.Equal(t, time.Minute, sweepInterval(time.Hour))
	assert.Equal(t, 10*time.Second, sweepInterval(10*time.Second))
}
