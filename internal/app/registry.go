package app

import (
	"bytes"
	"log"
	"sync"
	"time"

	"buzz-quiz-service/internal/buzz"
	"buzz-quiz-service/internal/domain"
)

// HistoryLimit caps the number of buzz events kept, most recent first.
const HistoryLimit = 100

const pressBuffer = 64

// Registry owns the decoded controller state, the buzz history and the two
// event feeds built on top of raw reports: a raw feed with any number of
// subscribers and a press feed with exactly one.
type Registry struct {
	now func() time.Time

	mu        sync.RWMutex
	connected bool
	debug     bool
	mapping   domain.ButtonMapping
	states    domain.ControllerStates
	history   []domain.BuzzEvent
	press     *PressFeed
	feedback  func(controllerID int)

	raw     *Broadcaster[[]byte]
	changes *Broadcaster[struct{}]
}

// PressFeed delivers button presses to the single active consumer. It is
// closed when cancelled or when another consumer subscribes.
type PressFeed struct {
	C <-chan domain.BuzzEvent

	ch       chan domain.BuzzEvent
	registry *Registry
	closed   bool
}

func NewRegistry() *Registry {
	return NewRegistryWithClock(time.Now)
}

// NewRegistryWithClock allows deterministic event timestamps in tests.
func NewRegistryWithClock(now func() time.Time) *Registry {
	return &Registry{
		now:     now,
		history: make([]domain.BuzzEvent, 0, HistoryLimit),
		raw:     NewBroadcasterWithBuffer[[]byte](pressBuffer),
		changes: NewBroadcasterWithBuffer[struct{}](1),
	}
}

// HandleReport processes one raw input report: it is offered to raw
// subscribers, decoded, and every new press is recorded and dispatched.
func (r *Registry) HandleReport(report []byte) {
	r.raw.Publish(bytes.Clone(report))

	r.mu.Lock()
	if r.debug {
		log.Printf("device: report % x", report)
	}
	next := buzz.Decode(report, r.mapping)
	presses := buzz.Presses(r.states, next)
	r.states = next

	now := r.now()
	for _, p := range presses {
		event := domain.BuzzEvent{ControllerID: p.ControllerID, Button: p.Button, Timestamp: now}
		r.recordLocked(event)
		if r.press != nil && !r.press.closed {
			offer(r.press.ch, event)
		}
	}
	feedback := r.feedback
	r.mu.Unlock()

	for _, p := range presses {
		if feedback != nil {
			feedback(p.ControllerID)
		}
	}
	r.changes.Publish(struct{}{})
}

func (r *Registry) recordLocked(event domain.BuzzEvent) {
	if len(r.history) >= HistoryLimit {
		r.history = r.history[:HistoryLimit-1]
	}
	r.history = append(r.history, domain.BuzzEvent{})
	copy(r.history[1:], r.history)
	r.history[0] = event
}

// SubscribePresses makes the caller the only press consumer. Any previous
// feed is closed.
func (r *Registry) SubscribePresses() *PressFeed {
	ch := make(chan domain.BuzzEvent, pressBuffer)
	feed := &PressFeed{C: ch, ch: ch, registry: r}

	r.mu.Lock()
	if r.press != nil {
		r.press.closeLocked()
	}
	r.press = feed
	r.mu.Unlock()
	return feed
}

// ClearPresses closes the active press feed, if any.
func (r *Registry) ClearPresses() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.press != nil {
		r.press.closeLocked()
		r.press = nil
	}
}

// Cancel detaches the feed. Safe to call more than once.
func (f *PressFeed) Cancel() {
	r := f.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	f.closeLocked()
	if r.press == f {
		r.press = nil
	}
}

func (f *PressFeed) closeLocked() {
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
}

// SubscribeRaw returns a copy of every raw report as it arrives.
func (r *Registry) SubscribeRaw() (<-chan []byte, func()) {
	return r.raw.Subscribe()
}

// SubscribeChanges signals (coalesced) whenever controller state or connection changes.
func (r *Registry) SubscribeChanges() (<-chan struct{}, func()) {
	return r.changes.Subscribe()
}

// SetMapping replaces the active layout. An empty mapping selects the default.
func (r *Registry) SetMapping(m domain.ButtonMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapping = append(domain.ButtonMapping(nil), m...)
}

// Mapping returns the active custom mapping, or nil when using the default layout.
func (r *Registry) Mapping() domain.ButtonMapping {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.mapping) == 0 {
		return nil
	}
	return append(domain.ButtonMapping(nil), r.mapping...)
}

// SetConnected records the device status. Disconnecting releases every button
// but keeps the history.
func (r *Registry) SetConnected(connected bool) {
	r.mu.Lock()
	r.connected = connected
	if !connected {
		r.states = domain.ControllerStates{}
	}
	r.mu.Unlock()
	r.changes.Publish(struct{}{})
}

func (r *Registry) Connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

// SetDebugMode toggles logging of every raw report.
func (r *Registry) SetDebugMode(debug bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debug = debug
}

// SetFeedback installs a hook invoked once per detected press, outside the lock.
func (r *Registry) SetFeedback(fn func(controllerID int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = fn
}

// States returns the current snapshot of all controllers.
func (r *Registry) States() domain.ControllerStates {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.states
}

// History returns up to limit events, most recent first. limit <= 0 returns all.
func (r *Registry) History(limit int) []domain.BuzzEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.BuzzEvent, n)
	copy(out, r.history[:n])
	return out
}

func (r *Registry) ClearHistory() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = r.history[:0]
}
