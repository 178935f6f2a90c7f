package app

import (
	"sort"
	"sync"

	"buzz-quiz-service/internal/domain"
)

const defaultRoundsToWin = 5

type historyClearer interface {
	ClearHistory()
}

// BuzzerGame is the scoring state machine for buzzer modes:
// setup -> running <-> paused -> finished, and reset back to setup.
// Every transition builds a new state and swaps it in whole.
type BuzzerGame struct {
	history historyClearer

	mu          sync.RWMutex
	state       domain.BuzzerGameState
	initialized bool
	onChange    func()
}

func NewBuzzerGame(history historyClearer) *BuzzerGame {
	return &BuzzerGame{history: history}
}

// OnChange installs a hook called after every successful transition.
func (g *BuzzerGame) OnChange(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onChange = fn
}

// Init seats NumberOfPlayers players on controllers 0..n-1 and clears the buzz history.
func (g *BuzzerGame) Init(cfg domain.BuzzerConfig) error {
	if cfg.NumberOfPlayers < 2 || cfg.NumberOfPlayers > domain.ControllerCount {
		return domain.ErrInvalidPlayerCount
	}
	rounds := cfg.RoundsToWin
	if rounds <= 0 {
		rounds = defaultRoundsToWin
	}
	mode := cfg.Mode
	if mode == "" {
		mode = domain.ModeFirstToBuzz
	}

	players := make([]domain.BuzzerPlayer, cfg.NumberOfPlayers)
	for i := range players {
		name := domain.SlotNames[i]
		if i < len(cfg.Names) && cfg.Names[i] != "" {
			name = cfg.Names[i]
		}
		players[i] = domain.BuzzerPlayer{
			ControllerID: i,
			Name:         name,
			Color:        domain.SlotColors[i],
			IsActive:     true,
		}
	}

	g.mu.Lock()
	g.state = domain.BuzzerGameState{
		TotalRounds: rounds,
		Players:     players,
		Mode:        mode,
	}
	g.initialized = true
	g.mu.Unlock()

	if g.history != nil {
		g.history.ClearHistory()
	}
	g.notify()
	return nil
}

// Start moves a set-up game to running.
func (g *BuzzerGame) Start() error {
	return g.apply(func(s *domain.BuzzerGameState) error {
		if s.Winner != nil {
			return domain.ErrGameNotRunning
		}
		s.IsRunning = true
		s.IsPaused = false
		return nil
	})
}

func (g *BuzzerGame) Pause() error {
	return g.apply(func(s *domain.BuzzerGameState) error {
		if !s.IsRunning {
			return domain.ErrGameNotRunning
		}
		s.IsPaused = true
		return nil
	})
}

func (g *BuzzerGame) Resume() error {
	return g.apply(func(s *domain.BuzzerGameState) error {
		if !s.IsRunning {
			return domain.ErrGameNotRunning
		}
		s.IsPaused = false
		return nil
	})
}

// AwardPoint adds a point, advances the round and checks for a winner.
func (g *BuzzerGame) AwardPoint(controllerID int) error {
	return g.apply(func(s *domain.BuzzerGameState) error {
		p, err := activePlayer(s, controllerID)
		if err != nil {
			return err
		}
		p.Score++
		s.CurrentRound++
		for i := range s.Players {
			if s.Players[i].Score >= s.TotalRounds {
				declareWinner(s, i)
				break
			}
		}
		return nil
	})
}

// DeductPoint removes a point, never going below zero.
func (g *BuzzerGame) DeductPoint(controllerID int) error {
	return g.apply(func(s *domain.BuzzerGameState) error {
		p, err := activePlayer(s, controllerID)
		if err != nil {
			return err
		}
		if p.Score > 0 {
			p.Score--
		}
		return nil
	})
}

// EliminatePlayer deactivates a player; the last active player wins.
func (g *BuzzerGame) EliminatePlayer(controllerID int) error {
	return g.apply(func(s *domain.BuzzerGameState) error {
		p, err := activePlayer(s, controllerID)
		if err != nil {
			return err
		}
		p.IsActive = false

		remaining, last := 0, -1
		for i := range s.Players {
			if s.Players[i].IsActive {
				remaining++
				last = i
			}
		}
		if remaining == 1 {
			declareWinner(s, last)
		}
		return nil
	})
}

// Reset returns to setup, keeping the seated players.
func (g *BuzzerGame) Reset() {
	g.mu.Lock()
	next := cloneBuzzerState(g.state)
	for i := range next.Players {
		next.Players[i].Score = 0
		next.Players[i].IsActive = true
	}
	next.Winner = nil
	next.CurrentRound = 0
	next.IsRunning = false
	next.IsPaused = false
	g.state = next
	g.mu.Unlock()
	g.notify()
}

// State returns a deep copy of the current state.
func (g *BuzzerGame) State() domain.BuzzerGameState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cloneBuzzerState(g.state)
}

// Standings returns players ordered by score, ties kept in seat order.
func (g *BuzzerGame) Standings() []domain.BuzzerPlayer {
	g.mu.RLock()
	ranked := append([]domain.BuzzerPlayer(nil), g.state.Players...)
	g.mu.RUnlock()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Initialized reports whether Init has been called.
func (g *BuzzerGame) Initialized() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.initialized
}

// Player returns the seat bound to a controller.
func (g *BuzzerGame) Player(controllerID int) (domain.BuzzerPlayer, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, p := range g.state.Players {
		if p.ControllerID == controllerID {
			return p, true
		}
	}
	return domain.BuzzerPlayer{}, false
}

func (g *BuzzerGame) apply(fn func(s *domain.BuzzerGameState) error) error {
	g.mu.Lock()
	if !g.initialized {
		g.mu.Unlock()
		return domain.ErrNoGame
	}
	next := cloneBuzzerState(g.state)
	if err := fn(&next); err != nil {
		g.mu.Unlock()
		return err
	}
	g.state = next
	g.mu.Unlock()
	g.notify()
	return nil
}

func (g *BuzzerGame) notify() {
	g.mu.RLock()
	fn := g.onChange
	g.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// activePlayer returns the mutable seat for a controller in a running game.
// Eliminated players cannot be scored.
func activePlayer(s *domain.BuzzerGameState, controllerID int) (*domain.BuzzerPlayer, error) {
	if !s.IsRunning || s.IsPaused {
		return nil, domain.ErrGameNotRunning
	}
	for i := range s.Players {
		if s.Players[i].ControllerID != controllerID {
			continue
		}
		if !s.Players[i].IsActive {
			return nil, domain.ErrPlayerEliminated
		}
		return &s.Players[i], nil
	}
	return nil, domain.ErrPlayerNotFound
}

func declareWinner(s *domain.BuzzerGameState, index int) {
	winner := s.Players[index]
	s.Winner = &winner
	s.IsRunning = false
	s.IsPaused = false
}

func cloneBuzzerState(s domain.BuzzerGameState) domain.BuzzerGameState {
	out := s
	out.Players = append([]domain.BuzzerPlayer(nil), s.Players...)
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	return out
}
