package buzz

import (
	"bytes"
	"time"

	"buzz-quiz-service/internal/domain"
)

const (
	// StepCount is the number of (controller, button) pairs to calibrate.
	StepCount = domain.ControllerCount * len(domain.Buttons)

	// ListenSettle is how long after listening starts before the baseline is taken.
	ListenSettle = 500 * time.Millisecond
	// StepSettle is how long after a detected press before the baseline is refreshed.
	StepSettle = 200 * time.Millisecond
)

// Step is one calibration target.
type Step struct {
	Index        int           `json:"index"`
	ControllerID int           `json:"controllerId"`
	Button       domain.Button `json:"button"`
}

// StepAt returns the target for a step index in visiting order: controller 0
// red, blue, orange, green, yellow, then controller 1, and so on.
func StepAt(index int) (Step, bool) {
	if index < 0 || index >= StepCount {
		return Step{}, false
	}
	n := len(domain.Buttons)
	return Step{Index: index, ControllerID: index / n, Button: domain.Buttons[index%n]}, true
}

// Discovery infers a ButtonMapping by watching raw reports change against a
// baseline while the operator presses each button in turn. It is not safe for
// concurrent use; callers serialize access.
type Discovery struct {
	now func() time.Time

	step        int
	baseline    []byte
	lastSeen    []byte
	settleUntil time.Time
	entries     domain.ButtonMapping
	complete    bool
}

// NewDiscovery returns an engine positioned at the first step.
func NewDiscovery() *Discovery {
	return NewDiscoveryWithClock(time.Now)
}

// NewDiscoveryWithClock allows deterministic settle windows in tests.
func NewDiscoveryWithClock(now func() time.Time) *Discovery {
	d := &Discovery{now: now}
	d.Restart()
	return d
}

// Restart discards collected entries and the baseline and starts listening again.
func (d *Discovery) Restart() {
	d.step = 0
	d.baseline = nil
	d.lastSeen = nil
	d.entries = make(domain.ButtonMapping, 0, StepCount)
	d.complete = false
	d.settleUntil = d.now().Add(ListenSettle)
}

// Feed evaluates one raw report. It returns the recorded entry when the report
// resolved the current step.
func (d *Discovery) Feed(report []byte) (domain.MappingEntry, bool) {
	if d.complete {
		return domain.MappingEntry{}, false
	}
	current := bytes.Clone(report)

	if !d.settleUntil.IsZero() {
		if d.now().Before(d.settleUntil) {
			d.lastSeen = current
			return domain.MappingEntry{}, false
		}
		d.settleUntil = time.Time{}
		if d.lastSeen != nil {
			d.baseline = d.lastSeen
		}
	}
	d.lastSeen = current

	if d.baseline == nil {
		d.baseline = bytes.Clone(current)
		return domain.MappingEntry{}, false
	}

	for i := range current {
		var base byte
		if i < len(d.baseline) {
			base = d.baseline[i]
		}
		diff := current[i] ^ base
		if diff == 0 {
			continue
		}
		pressed := current[i] & diff
		if pressed == 0 {
			// only releases in this byte; fold them into the baseline
			d.absorb(i, current[i])
			return domain.MappingEntry{}, false
		}
		mask := pressed & -pressed
		if d.assigned(i, mask) {
			return domain.MappingEntry{}, false
		}
		return d.record(i, mask), true
	}
	return domain.MappingEntry{}, false
}

// Skip advances past the current step without recording an entry.
func (d *Discovery) Skip() {
	if d.complete {
		return
	}
	d.advance()
}

// Current returns the step awaiting a press.
func (d *Discovery) Current() (Step, bool) {
	if d.complete {
		return Step{}, false
	}
	return StepAt(d.step)
}

// StepIndex returns how many steps have been resolved.
func (d *Discovery) StepIndex() int {
	return d.step
}

// Complete reports whether every step was recorded or skipped.
func (d *Discovery) Complete() bool {
	return d.complete
}

// HasBaseline reports whether a baseline report has been captured.
func (d *Discovery) HasBaseline() bool {
	return d.baseline != nil
}

// Mapping returns a copy of the entries collected so far.
func (d *Discovery) Mapping() domain.ButtonMapping {
	out := make(domain.ButtonMapping, len(d.entries))
	copy(out, d.entries)
	return out
}

func (d *Discovery) record(byteIndex int, mask byte) domain.MappingEntry {
	step, _ := StepAt(d.step)
	entry := domain.MappingEntry{
		ControllerID: step.ControllerID,
		Button:       step.Button,
		ByteIndex:    byteIndex,
		BitMask:      mask,
	}
	d.entries = append(d.entries, entry)
	d.advance()
	d.settleUntil = d.now().Add(StepSettle)
	return entry
}

func (d *Discovery) advance() {
	d.step++
	if d.step >= StepCount {
		d.step = StepCount
		d.complete = true
	}
}

func (d *Discovery) assigned(byteIndex int, mask byte) bool {
	for _, e := range d.entries {
		if e.ByteIndex == byteIndex && e.BitMask == mask {
			return true
		}
	}
	return false
}

func (d *Discovery) absorb(byteIndex int, value byte) {
	for len(d.baseline) <= byteIndex {
		d.baseline = append(d.baseline, 0)
	}
	d.baseline[byteIndex] = value
}
