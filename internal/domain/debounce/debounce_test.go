package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushCapture[T any] struct {
	mu      sync.Mutex
	batches [][]T
}

func (c *flushCapture[T]) record(batch []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, batch)
}

func (c *flushCapture[T]) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches)
}

func (c *flushCapture[T]) last() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.batches) == 0 {
		return nil
	}
	return c.batches[len(c.batches)-1]
}

func waitForCount(t *testing.T, c *flushCapture[rune], n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.count() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d flushes, got %d", n, c.count())
}

func TestDebouncer_CoalescesRapidPushesIntoOneFlush(t *testing.T) {
	capture := &flushCapture[rune]{}
	d := New(Config{QuietPeriod: 40 * time.Millisecond, MaxStackSize: 100, MaxWait: time.Second}, capture.record)

	d.Push('a')
	d.Push('b')
	d.Push('c')

	waitForCount(t, capture, 1)
	assert.Equal(t, []rune{'a', 'b', 'c'}, capture.last())
}

func TestDebouncer_MaxStackSizeForcesImmediateFlush(t *testing.T) {
	capture := &flushCapture[rune]{}
	d := New(Config{QuietPeriod: time.Second, MaxStackSize: 3, MaxWait: 10 * time.Second}, capture.record)

	d.Push('a')
	d.Push('b')
	d.Push('c')

	waitForCount(t, capture, 1)
	assert.Equal(t, []rune{'a', 'b', 'c'}, capture.last())
}

func TestDebouncer_MaxWaitForcesFlushUnderContinuousActivity(t *testing.T) {
	capture := &flushCapture[rune]{}
	d := New(Config{QuietPeriod: 100 * time.Millisecond, MaxStackSize: 1000, MaxWait: 150 * time.Millisecond}, capture.record)

	stop := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(stop) {
		d.Push('x')
		time.Sleep(20 * time.Millisecond)
	}

	waitForCount(t, capture, 1)
}

func TestDebouncer_Flush_IsNoopWhenEmpty(t *testing.T) {
	capture := &flushCapture[rune]{}
	d := New(Config{QuietPeriod: time.Second, MaxStackSize: 10, MaxWait: time.Second}, capture.record)

	d.Flush()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, capture.count())
}

func TestDebouncer_Shutdown_FlushesPendingBatch(t *testing.T) {
	capture := &flushCapture[rune]{}
	d := New(Config{QuietPeriod: time.Second, MaxStackSize: 10, MaxWait: time.Second}, capture.record)

	d.Push('a')
	d.Shutdown()

	waitForCount(t, capture, 1)
	require.Equal(t, []rune{'a'}, capture.last())
}

func TestDebouncer_PushAfterShutdownIsIgnored(t *testing.T) {
	capture := &flushCapture[rune]{}
	d := New(Config{QuietPeriod: 10 * time.Millisecond, MaxStackSize: 10, MaxWait: time.Second}, capture.record)

	d.Shutdown()
	d.Push('z')

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, capture.count())
}
