package app

import (
	"sort"
	"sync"
	"time"

	"buzz-quiz-service/internal/domain"
)

// LeaderboardEvery is the question interval after which standings are shown.
const LeaderboardEvery = 3

// QuizGame is the timed multiple-choice state machine:
// lobby -> get-ready -> answering -> results -> [leaderboard] -> get-ready | finished.
// It owns the answer countdown; leaving the answering phase always stops it.
type QuizGame struct {
	now       func() time.Time
	countdown *Countdown

	mu       sync.Mutex
	state    domain.QuizGameState
	onChange func()
}

// NewQuizGame returns a game whose countdown ticks once per tick interval.
func NewQuizGame(tick time.Duration) *QuizGame {
	return NewQuizGameWithClock(time.Now, tick)
}

// NewQuizGameWithClock allows deterministic answer timings in tests.
func NewQuizGameWithClock(now func() time.Time, tick time.Duration) *QuizGame {
	return &QuizGame{
		now:       now,
		countdown: NewCountdown(tick),
		state:     domain.QuizGameState{Phase: domain.PhaseLobby},
	}
}

// OnChange installs a hook called after every transition and countdown tick.
func (g *QuizGame) OnChange(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onChange = fn
}

// Init loads a quiz and seats playerCount players on controllers 0..n-1.
func (g *QuizGame) Init(quiz domain.Quiz, playerCount int, names ...string) error {
	if playerCount < 2 || playerCount > domain.ControllerCount {
		return domain.ErrInvalidPlayerCount
	}
	if len(quiz.Questions) == 0 {
		return domain.ErrInvalidQuiz
	}
	players := make([]domain.QuizPlayerScore, playerCount)
	for i := range players {
		name := domain.SlotNames[i]
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		players[i] = domain.QuizPlayerScore{ControllerID: i, Name: name, Color: domain.SlotColors[i]}
	}
	q := cloneQuiz(quiz)

	g.countdown.Stop()
	g.mu.Lock()
	g.state = domain.QuizGameState{
		Quiz:         &q,
		Phase:        domain.PhaseLobby,
		PlayerScores: players,
	}
	g.mu.Unlock()
	g.notify()
	return nil
}

// StartQuestion prepares the current question: get-ready, no answers, full time.
func (g *QuizGame) StartQuestion() error {
	return g.apply(func(s *domain.QuizGameState) error {
		if s.Phase != domain.PhaseLobby && s.Phase != domain.PhaseGetReady {
			return domain.ErrWrongPhase
		}
		question, ok := s.CurrentQuestion()
		if !ok {
			return domain.ErrWrongPhase
		}
		s.Phase = domain.PhaseGetReady
		s.CurrentAnswers = nil
		s.TimeRemaining = question.TimeLimit
		return nil
	})
}

// StartAnswering opens answers and starts the countdown.
func (g *QuizGame) StartAnswering() error {
	g.mu.Lock()
	if g.state.Quiz == nil {
		g.mu.Unlock()
		return domain.ErrNoGame
	}
	if g.state.Phase != domain.PhaseGetReady {
		g.mu.Unlock()
		return domain.ErrWrongPhase
	}
	next := cloneQuizState(g.state)
	next.Phase = domain.PhaseAnswering
	next.QuestionStartTime = g.now()
	g.state = next
	g.countdown.Start(g.tick)
	g.mu.Unlock()
	g.notify()
	return nil
}

// RecordAnswer stores a player's first answer to the current question.
func (g *QuizGame) RecordAnswer(controllerID, answerIndex int) error {
	return g.apply(func(s *domain.QuizGameState) error {
		if s.Phase != domain.PhaseAnswering {
			return domain.ErrWrongPhase
		}
		if answerIndex < 0 || answerIndex > 3 {
			return domain.ErrInvalidAnswerIndex
		}
		if !hasPlayer(s, controllerID) {
			return domain.ErrPlayerNotFound
		}
		for _, a := range s.CurrentAnswers {
			if a.ControllerID == controllerID {
				return domain.ErrDuplicateAnswer
			}
		}
		question, _ := s.CurrentQuestion()
		s.CurrentAnswers = append(s.CurrentAnswers, domain.QuizAnswer{
			ControllerID: controllerID,
			AnswerIndex:  answerIndex,
			TimeMs:       int(g.now().Sub(s.QuestionStartTime).Milliseconds()),
			IsCorrect:    answerIndex == question.CorrectIndex,
		})
		return nil
	})
}

// AllPlayersAnswered reports whether every seated player has an answer.
func (g *QuizGame) AllPlayersAnswered() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.state.PlayerScores) > 0 && len(g.state.CurrentAnswers) >= len(g.state.PlayerScores)
}

// EndQuestion stops the countdown, moves to results and scores the answers.
func (g *QuizGame) EndQuestion() error {
	g.mu.Lock()
	err := g.endQuestionLocked()
	g.mu.Unlock()
	if err != nil {
		return err
	}
	g.notify()
	return nil
}

func (g *QuizGame) endQuestionLocked() error {
	if g.state.Phase != domain.PhaseAnswering {
		return domain.ErrWrongPhase
	}
	g.countdown.Stop()

	next := cloneQuizState(g.state)
	next.Phase = domain.PhaseResults
	question, _ := next.CurrentQuestion()
	limitMs := question.TimeLimit * 1000

	for i := range next.PlayerScores {
		p := &next.PlayerScores[i]
		answer, ok := findAnswer(next.CurrentAnswers, p.ControllerID)
		switch {
		case !ok || !answer.IsCorrect:
			p.Streak = 0
		default:
			p.Score += CalculateQuizScore(answer.TimeMs, limitMs, p.Streak)
			p.Streak++
			p.CorrectCount++
		}
	}
	g.state = next
	return nil
}

// NextQuestion advances to the next question, or finishes after the last one.
func (g *QuizGame) NextQuestion() error {
	return g.apply(func(s *domain.QuizGameState) error {
		if s.Phase != domain.PhaseResults && s.Phase != domain.PhaseLeaderboard {
			return domain.ErrWrongPhase
		}
		if s.CurrentQuestionIndex >= len(s.Quiz.Questions)-1 {
			s.Phase = domain.PhaseFinished
			return nil
		}
		s.CurrentQuestionIndex++
		s.CurrentAnswers = nil
		s.Phase = domain.PhaseGetReady
		return nil
	})
}

// ShouldShowLeaderboard reports whether standings are due after the current
// question: every third question, but never after the last.
func (g *QuizGame) ShouldShowLeaderboard() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return leaderboardDue(g.state)
}

// ShowLeaderboard enters the leaderboard interlude from results.
func (g *QuizGame) ShowLeaderboard() error {
	return g.apply(func(s *domain.QuizGameState) error {
		if s.Phase != domain.PhaseResults || !leaderboardDue(*s) {
			return domain.ErrWrongPhase
		}
		s.Phase = domain.PhaseLeaderboard
		return nil
	})
}

// Standings returns players ordered by score, ties kept in seat order.
func (g *QuizGame) Standings() []domain.QuizPlayerScore {
	g.mu.Lock()
	defer g.mu.Unlock()
	return standings(g.state.PlayerScores)
}

// Winner returns the highest scoring player; ties go to the lower seat.
func (g *QuizGame) Winner() (domain.QuizPlayerScore, bool) {
	ranked := g.Standings()
	if len(ranked) == 0 {
		return domain.QuizPlayerScore{}, false
	}
	return ranked[0], true
}

// Reset returns to the lobby with zeroed scores, keeping quiz and players.
func (g *QuizGame) Reset() {
	g.mu.Lock()
	g.countdown.Stop()
	next := cloneQuizState(g.state)
	next.Phase = domain.PhaseLobby
	next.CurrentQuestionIndex = 0
	next.CurrentAnswers = nil
	next.QuestionStartTime = time.Time{}
	next.TimeRemaining = 0
	for i := range next.PlayerScores {
		next.PlayerScores[i].Score = 0
		next.PlayerScores[i].Streak = 0
		next.PlayerScores[i].CorrectCount = 0
	}
	g.state = next
	g.mu.Unlock()
	g.notify()
}

// State returns a deep copy of the current state.
func (g *QuizGame) State() domain.QuizGameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := cloneQuizState(g.state)
	if out.Quiz != nil {
		q := cloneQuiz(*out.Quiz)
		out.Quiz = &q
	}
	return out
}

// Phase returns the current phase.
func (g *QuizGame) Phase() domain.Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Phase
}

// TimerActive reports whether the answer countdown is running.
func (g *QuizGame) TimerActive() bool {
	return g.countdown.Active()
}

// tick is called by the countdown; ticks from a replaced run are ignored.
func (g *QuizGame) tick(gen uint64) {
	g.mu.Lock()
	if !g.countdown.Current(gen) || g.state.Phase != domain.PhaseAnswering {
		g.mu.Unlock()
		return
	}
	next := cloneQuizState(g.state)
	if next.TimeRemaining > 0 {
		next.TimeRemaining--
	}
	g.state = next
	if next.TimeRemaining == 0 {
		_ = g.endQuestionLocked()
	}
	g.mu.Unlock()
	g.notify()
}

func (g *QuizGame) apply(fn func(s *domain.QuizGameState) error) error {
	g.mu.Lock()
	if g.state.Quiz == nil {
		g.mu.Unlock()
		return domain.ErrNoGame
	}
	next := cloneQuizState(g.state)
	if err := fn(&next); err != nil {
		g.mu.Unlock()
		return err
	}
	g.state = next
	g.mu.Unlock()
	g.notify()
	return nil
}

func (g *QuizGame) notify() {
	g.mu.Lock()
	fn := g.onChange
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func leaderboardDue(s domain.QuizGameState) bool {
	if s.Quiz == nil {
		return false
	}
	number := s.CurrentQuestionIndex + 1
	last := s.CurrentQuestionIndex >= len(s.Quiz.Questions)-1
	return number%LeaderboardEvery == 0 && !last
}

func standings(players []domain.QuizPlayerScore) []domain.QuizPlayerScore {
	ranked := append([]domain.QuizPlayerScore(nil), players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func hasPlayer(s *domain.QuizGameState, controllerID int) bool {
	for _, p := range s.PlayerScores {
		if p.ControllerID == controllerID {
			return true
		}
	}
	return false
}

func findAnswer(answers []domain.QuizAnswer, controllerID int) (domain.QuizAnswer, bool) {
	for _, a := range answers {
		if a.ControllerID == controllerID {
			return a, true
		}
	}
	return domain.QuizAnswer{}, false
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	out := q
	out.Questions = append([]domain.QuizQuestion(nil), q.Questions...)
	return out
}

func cloneQuizState(s domain.QuizGameState) domain.QuizGameState {
	out := s
	out.PlayerScores = append([]domain.QuizPlayerScore(nil), s.PlayerScores...)
	out.CurrentAnswers = append([]domain.QuizAnswer(nil), s.CurrentAnswers...)
	return out
}
