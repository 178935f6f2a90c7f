package app

import (
	"context"
	"sync"

	"buzz-quiz-service/internal/domain"
)

// RoundState describes the arbitration state of the current buzzer round.
type RoundState struct {
	Waiting  bool `json:"waiting"`
	BuzzedID *int `json:"buzzedId"`
}

// BuzzerRound decides which buzz wins a round and resolves it against the
// game. Only the first red press from an active player is accepted while
// waiting; the round stays locked until resolved.
type BuzzerRound struct {
	game *BuzzerGame

	mu       sync.Mutex
	waiting  bool
	buzzed   int
	onBuzz   func(controllerID int)
	onChange func()
}

func NewBuzzerRound(game *BuzzerGame) *BuzzerRound {
	return &BuzzerRound{game: game, buzzed: -1}
}

// OnBuzz installs a hook invoked when a buzz is accepted.
func (r *BuzzerRound) OnBuzz(fn func(controllerID int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onBuzz = fn
}

// OnChange installs a hook invoked when the round state changes.
func (r *BuzzerRound) OnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Open starts waiting for the next buzz.
func (r *BuzzerRound) Open() {
	r.mu.Lock()
	r.waiting = true
	r.buzzed = -1
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Close stops accepting buzzes without resolving.
func (r *BuzzerRound) Close() {
	r.mu.Lock()
	r.waiting = false
	r.buzzed = -1
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// HandlePress reports whether the event won the round.
func (r *BuzzerRound) HandlePress(ev domain.BuzzEvent) bool {
	if ev.Button != domain.ButtonRed {
		return false
	}
	state := r.game.State()
	if !state.IsRunning || state.IsPaused {
		return false
	}
	player, ok := r.game.Player(ev.ControllerID)
	if !ok || !player.IsActive {
		return false
	}

	r.mu.Lock()
	if !r.waiting {
		r.mu.Unlock()
		return false
	}
	r.waiting = false
	r.buzzed = ev.ControllerID
	onBuzz, onChange := r.onBuzz, r.onChange
	r.mu.Unlock()

	if onBuzz != nil {
		onBuzz(ev.ControllerID)
	}
	if onChange != nil {
		onChange()
	}
	return true
}

// ResolveCorrect awards the buzzing player a point.
func (r *BuzzerRound) ResolveCorrect() error {
	return r.resolve(func(id int) error {
		return r.game.AwardPoint(id)
	})
}

// ResolveWrong applies the mode's penalty: none for first-to-buzz, a point
// deduction for speed rounds, elimination for elimination mode.
func (r *BuzzerRound) ResolveWrong() error {
	return r.resolve(func(id int) error {
		switch r.game.State().Mode {
		case domain.ModeSpeedRound:
			return r.game.DeductPoint(id)
		case domain.ModeElimination:
			return r.game.EliminatePlayer(id)
		}
		return nil
	})
}

// resolve claims the buzz before applying it, so a buzz is resolved at most once.
func (r *BuzzerRound) resolve(apply func(id int) error) error {
	r.mu.Lock()
	id := r.buzzed
	r.buzzed = -1
	r.mu.Unlock()
	if id < 0 {
		return domain.ErrNoBuzz
	}
	if err := apply(id); err != nil {
		r.mu.Lock()
		if r.buzzed < 0 && !r.waiting {
			r.buzzed = id
		}
		r.mu.Unlock()
		return err
	}
	if r.game.State().IsRunning {
		r.Open()
	} else {
		r.Close()
	}
	return nil
}

// State returns the arbitration state.
func (r *BuzzerRound) State() RoundState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := RoundState{Waiting: r.waiting}
	if r.buzzed >= 0 {
		id := r.buzzed
		st.BuzzedID = &id
	}
	return st
}

// Run consumes presses until the feed closes or ctx is done.
func (r *BuzzerRound) Run(ctx context.Context, presses <-chan domain.BuzzEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-presses:
			if !ok {
				return
			}
			r.HandlePress(ev)
		}
	}
}
