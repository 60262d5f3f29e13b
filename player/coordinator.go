package player

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Coordinator enforces that at most one element plays at a time.
type Coordinator struct {
	mu      sync.Mutex
	current Pauser
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// SetCurrent registers p as the playing element. A different previously
// registered element is paused exactly once. Passing nil pauses and
// clears the current element.
func (c *Coordinator) SetCurrent(p Pauser) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.current
	c.current = p
	if prev == nil || prev == p {
		return
	}
	if err := prev.Pause(); err != nil {
		log.Warn("Failed to pause previous element", "error", err)
	}
}

// Current returns the registered element, or nil.
func (c *Coordinator) Current() Pauser {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Stop ends playback of the current element and clears it. Elements
// that are not Stoppers are paused instead.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.current
	c.current = nil
	if cur == nil {
		return
	}
	var err error
	if s, ok := cur.(Stopper); ok {
		err = s.Stop()
	} else {
		err = cur.Pause()
	}
	if err != nil {
		log.Warn("Failed to stop current element", "error", err)
	}
}

// Release forgets p if it is current, without pausing it.
func (c *Coordinator) Release(p Pauser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == p {
		c.current = nil
	}
}
