// Package state holds the observable values twosync services publish:
// sync status per pipeline and the latest list of cached tasks.
package state

import "sync"

// Status is the phase of one sync pipeline.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

func (s Status) String() string { return string(s) }

// Cell is a value that can be read, replaced and watched.
//
// Subscribers receive values on a buffered channel. When a subscriber falls
// behind, the oldest pending value is discarded so the newest one always
// gets through; Set never blocks.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[int]chan T
	next  int
}

// NewCell returns a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial, subs: make(map[int]chan T)}
}

func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores v and publishes it to every subscriber.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = v
	for _, ch := range c.subs {
		offer(ch, v)
	}
}

// Subscribe returns a channel that first receives the current value and then
// every later one. buffer below 1 is treated as 1. cancel closes the channel
// and may be called more than once.
func (c *Cell[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = ch
	ch <- c.value
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
	return ch, cancel
}

// offer is called with the cell lock held, so it is the only sender on ch.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
