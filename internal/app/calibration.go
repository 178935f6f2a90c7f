package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"buzz-quiz-service/internal/buzz"
	"buzz-quiz-service/internal/domain"
)

// MappingStore persists the custom button mapping.
type MappingStore interface {
	LoadMapping(ctx context.Context) (domain.ButtonMapping, error)
	SaveMapping(ctx context.Context, mapping domain.ButtonMapping) error
	ClearMapping(ctx context.Context) error
}

// CalibrationProgress is a snapshot of the mapping wizard.
type CalibrationProgress struct {
	Active   bool                 `json:"active"`
	Step     *buzz.Step           `json:"step"`
	Resolved int                  `json:"resolved"`
	Total    int                  `json:"total"`
	Complete bool                 `json:"complete"`
	Entries  domain.ButtonMapping `json:"entries"`
	Last     *domain.MappingEntry `json:"last,omitempty"`
}

// Calibration runs the mapping wizard against the registry's raw feed and
// applies the result to the registry once saved.
type Calibration struct {
	registry *Registry
	store    MappingStore
	now      func() time.Time

	mu      sync.Mutex
	engine  *buzz.Discovery
	last    *domain.MappingEntry
	stop    func()
	updates *Broadcaster[CalibrationProgress]
}

func NewCalibration(registry *Registry, store MappingStore) *Calibration {
	return NewCalibrationWithClock(registry, store, time.Now)
}

// NewCalibrationWithClock allows deterministic settle windows in tests.
func NewCalibrationWithClock(registry *Registry, store MappingStore, now func() time.Time) *Calibration {
	return &Calibration{
		registry: registry,
		store:    store,
		now:      now,
		updates:  NewBroadcaster[CalibrationProgress](),
	}
}

// LoadSaved applies a previously saved mapping, if any, to the registry.
func (c *Calibration) LoadSaved(ctx context.Context) (bool, error) {
	mapping, err := c.store.LoadMapping(ctx)
	if errors.Is(err, domain.ErrMappingNotFound) {
		c.registry.SetMapping(nil)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := mapping.Validate(); err != nil {
		return false, err
	}
	c.registry.SetMapping(mapping)
	return true, nil
}

// Start begins a fresh calibration run, listening to raw reports until Stop
// or until ctx is done.
func (c *Calibration) Start(ctx context.Context) {
	raw, cancel := c.registry.SubscribeRaw()
	runCtx, stopRun := context.WithCancel(ctx)

	c.mu.Lock()
	if c.stop != nil {
		c.stop()
	}
	c.engine = buzz.NewDiscoveryWithClock(c.now)
	c.last = nil
	c.stop = func() {
		stopRun()
		cancel()
	}
	c.mu.Unlock()
	c.publish()

	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case report, ok := <-raw:
				if !ok {
					return
				}
				c.Feed(report)
			}
		}
	}()
}

// Feed evaluates one raw report against the current step.
func (c *Calibration) Feed(report []byte) bool {
	c.mu.Lock()
	if c.engine == nil {
		c.mu.Unlock()
		return false
	}
	entry, ok := c.engine.Feed(report)
	if ok {
		c.last = &entry
	}
	c.mu.Unlock()
	if ok {
		c.publish()
	}
	return ok
}

// Skip leaves the current button unmapped.
func (c *Calibration) Skip() error {
	return c.withEngine(func(d *buzz.Discovery) { d.Skip() })
}

// Restart discards everything collected and begins again at the first step.
func (c *Calibration) Restart() error {
	return c.withEngine(func(d *buzz.Discovery) {
		d.Restart()
		c.last = nil
	})
}

// Stop ends the run without saving.
func (c *Calibration) Stop() {
	c.mu.Lock()
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	c.engine = nil
	c.last = nil
	c.mu.Unlock()
	c.publish()
}

// Save persists a completed mapping and makes it the active layout.
func (c *Calibration) Save(ctx context.Context) (domain.ButtonMapping, error) {
	c.mu.Lock()
	if c.engine == nil || !c.engine.Complete() {
		c.mu.Unlock()
		return nil, domain.ErrCalibrationIncomplete
	}
	mapping := c.engine.Mapping()
	c.mu.Unlock()

	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	if err := c.store.SaveMapping(ctx, mapping); err != nil {
		return nil, fmt.Errorf("save mapping: %w", err)
	}
	c.registry.SetMapping(mapping)
	c.Stop()
	return mapping, nil
}

// Clear removes the saved mapping and reverts to the default layout.
func (c *Calibration) Clear(ctx context.Context) error {
	if err := c.store.ClearMapping(ctx); err != nil {
		return fmt.Errorf("clear mapping: %w", err)
	}
	c.registry.SetMapping(nil)
	return nil
}

// Progress returns a snapshot of the wizard.
func (c *Calibration) Progress() CalibrationProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := CalibrationProgress{Total: buzz.StepCount}
	if c.engine == nil {
		return p
	}
	p.Active = true
	p.Resolved = c.engine.StepIndex()
	p.Complete = c.engine.Complete()
	p.Entries = c.engine.Mapping()
	if step, ok := c.engine.Current(); ok {
		p.Step = &step
	}
	if c.last != nil {
		last := *c.last
		p.Last = &last
	}
	return p
}

// Updates streams progress after every change.
func (c *Calibration) Updates() (<-chan CalibrationProgress, func()) {
	return c.updates.Subscribe()
}

func (c *Calibration) withEngine(fn func(d *buzz.Discovery)) error {
	c.mu.Lock()
	if c.engine == nil {
		c.mu.Unlock()
		return domain.ErrCalibrationNotRunning
	}
	fn(c.engine)
	c.mu.Unlock()
	c.publish()
	return nil
}

func (c *Calibration) publish() {
	c.updates.Publish(c.Progress())
}
