package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"buzz-quiz-service/internal/domain"
)

// answerButtons maps the four coloured buttons to option indexes, top to bottom.
var answerButtons = map[domain.Button]int{
	domain.ButtonBlue:   0,
	domain.ButtonOrange: 1,
	domain.ButtonGreen:  2,
	domain.ButtonYellow: 3,
}

// AnswerIndex returns the option selected by a button. Red selects nothing.
func AnswerIndex(b domain.Button) (int, bool) {
	idx, ok := answerButtons[b]
	return idx, ok
}

// QuizRound drives a QuizGame from controller presses and host commands: the
// get-ready delay before answers open, early close when everyone answered, and
// the leaderboard interlude.
type QuizRound struct {
	game     *QuizGame
	getReady time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewQuizRound(game *QuizGame, getReady time.Duration) *QuizRound {
	return &QuizRound{game: game, getReady: getReady}
}

// BeginQuestion prepares the current question and opens answers after the
// get-ready delay.
func (r *QuizRound) BeginQuestion() error {
	if err := r.game.StartQuestion(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
	if r.getReady <= 0 {
		return r.game.StartAnswering()
	}
	r.timer = time.AfterFunc(r.getReady, func() {
		if err := r.game.StartAnswering(); err != nil && !errors.Is(err, domain.ErrWrongPhase) {
			log.Printf("quiz: start answering: %v", err)
		}
	})
	return nil
}

// HandlePress records an answer and closes the question once all players answered.
func (r *QuizRound) HandlePress(ev domain.BuzzEvent) error {
	idx, ok := AnswerIndex(ev.Button)
	if !ok {
		return domain.ErrInvalidAnswerIndex
	}
	if err := r.game.RecordAnswer(ev.ControllerID, idx); err != nil {
		return err
	}
	if r.game.AllPlayersAnswered() {
		if err := r.game.EndQuestion(); err != nil && !errors.Is(err, domain.ErrWrongPhase) {
			return err
		}
	}
	return nil
}

// Next leaves the results screen: to the leaderboard when due, otherwise to
// the next question (or the final standings).
func (r *QuizRound) Next() error {
	if r.game.Phase() == domain.PhaseResults && r.game.ShouldShowLeaderboard() {
		return r.game.ShowLeaderboard()
	}
	if err := r.game.NextQuestion(); err != nil {
		return err
	}
	if r.game.Phase() == domain.PhaseGetReady {
		return r.BeginQuestion()
	}
	return nil
}

// Reset cancels any pending get-ready delay and resets the game.
func (r *QuizRound) Reset() {
	r.mu.Lock()
	r.stopTimerLocked()
	r.mu.Unlock()
	r.game.Reset()
}

// Run consumes presses until the feed closes or ctx is done.
func (r *QuizRound) Run(ctx context.Context, presses <-chan domain.BuzzEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-presses:
			if !ok {
				return
			}
			// duplicates, red presses and presses outside answering are expected noise
			_ = r.HandlePress(ev)
		}
	}
}

func (r *QuizRound) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
