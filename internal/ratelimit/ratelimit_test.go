package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

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

func TestAllowFixedWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(clock.Now)

	for i := 0; i < 5; i++ {
		require.True(t, l.Allow("1.2.3.4", 5, time.Minute), "call %d", i+1)
	}
	require.False(t, l.Allow("1.2.3.4", 5, time.Minute))
	require.True(t, l.Allow("5.6.7.8", 5, time.Minute))

	clock.Advance(59 * time.Second)
	require.False(t, l.Allow("1.2.3.4", 5, time.Minute))

	clock.Advance(time.Second)
	require.True(t, l.Allow("1.2.3.4", 5, time.Minute))
}

func TestReserveReportsReset(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(clock.Now)

	ok, reset := l.Reserve("ip", 1, time.Minute)
	require.True(t, ok)
	require.Equal(t, time.Minute, reset)

	clock.Advance(20 * time.Second)
	ok, reset = l.Reserve("ip", 1, time.Minute)
	require.False(t, ok)
	require.Equal(t, 40*time.Second, reset)
}

func TestSweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(clock.Now)
	l.Allow("a", 1, time.Minute)
	clock.Advance(30 * time.Second)
	l.Allow("b", 1, time.Minute)
	clock.Advance(30 * time.Second)

	require.Equal(t, 1, l.Sweep(time.Minute))
	require.Equal(t, 1, l.Len())
}

func TestAllowConcurrent(t *testing.T) {
	l := New(nil)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("same", 10, time.Hour) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 10, allowed)
}
