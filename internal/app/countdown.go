package app

import (
	"sync"
	"time"
)

// Countdown is a restartable ticker. At most one run is active; starting a new
// run stops the previous one, and ticks from a stopped run are recognised as
// stale through their generation number.
type Countdown struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	gen  uint64
}

func NewCountdown(interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{interval: interval}
}

// Start begins a new run that calls onTick once per interval until stopped.
func (c *Countdown) Start(onTick func(gen uint64)) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.gen++
	stop := make(chan struct{})
	c.stop = stop
	gen := c.gen

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				onTick(gen)
			}
		}
	}()
	return gen
}

// Stop cancels the active run, if any.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Current reports whether gen identifies the active run.
func (c *Countdown) Current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil && gen == c.gen
}

// Active reports whether a run is in progress.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *Countdown) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}
