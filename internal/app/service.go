package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"buzz-quiz-service/internal/buzz"
	"buzz-quiz-service/internal/domain"
)

// Device is an open Buzz dongle.
type Device interface {
	Lights
	ReadReport() ([]byte, error)
	Close() error
}

// Connector opens the Buzz dongle.
type Connector interface {
	Connect() (Device, error)
}

// Mode names the consumer currently attached to controller presses.
type Mode string

const (
	ModeIdle        Mode = "idle"
	ModeBuzzer      Mode = "buzzer"
	ModeQuiz        Mode = "quiz"
	ModeCalibration Mode = "calibration"
)

const recentEvents = 10

// Options tunes timings of the game loops.
type Options struct {
	GetReady   time.Duration
	AnswerTick time.Duration
}

// Snapshot is everything a host screen needs to render.
type Snapshot struct {
	Connected   bool                     `json:"connected"`
	Mode        Mode                     `json:"mode"`
	Mapping     string                   `json:"mapping"`
	Controllers domain.ControllerStates  `json:"controllers"`
	Recent      []domain.BuzzEvent       `json:"recent"`
	Buzzer      *domain.BuzzerGameState  `json:"buzzer,omitempty"`
	Round       *RoundState              `json:"round,omitempty"`
	Ranking     []domain.BuzzerPlayer    `json:"ranking,omitempty"`
	Quiz        *domain.QuizGameState    `json:"quiz,omitempty"`
	Standings   []domain.QuizPlayerScore `json:"standings,omitempty"`
	Calibration *CalibrationProgress     `json:"calibration,omitempty"`
}

// Service wires the controller registry to whichever game mode is active and
// exposes the host commands.
type Service struct {
	registry    *Registry
	buzzer      *BuzzerGame
	round       *BuzzerRound
	quiz        *QuizGame
	quizRound   *QuizRound
	calibration *Calibration
	library     *QuizLibrary
	quizzes     QuizRepository
	lights      *lightSwitch
	snapshots   *Broadcaster[Snapshot]

	mu       sync.Mutex
	mode     Mode
	stopMode func()
}

// NewService builds the service. quizzes may be a caching repository in front
// of the library; nil uses the library directly.
func NewService(mappings MappingStore, library *QuizLibrary, quizzes QuizRepository, opts Options) *Service {
	if quizzes == nil {
		quizzes = library
	}
	registry := NewRegistry()
	buzzer := NewBuzzerGame(registry)
	quiz := NewQuizGame(opts.AnswerTick)

	s := &Service{
		registry:    registry,
		buzzer:      buzzer,
		round:       NewBuzzerRound(buzzer),
		quiz:        quiz,
		quizRound:   NewQuizRound(quiz, opts.GetReady),
		calibration: NewCalibration(registry, mappings),
		library:     library,
		quizzes:     quizzes,
		lights:      newLightSwitch(),
		snapshots:   NewBroadcaster[Snapshot](),
		mode:        ModeIdle,
	}

	buzzer.OnChange(s.publish)
	quiz.OnChange(s.publish)
	s.round.OnChange(s.publish)
	s.round.OnBuzz(func(controllerID int) {
		_ = s.lights.SetLights(buzz.Single(controllerID))
	})
	registry.SetFeedback(func(controllerID int) {
		if s.Mode() != ModeBuzzer {
			go s.lights.flash(controllerID)
		}
	})
	return s
}

// Run forwards controller and calibration changes to snapshot subscribers
// until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	changes, cancelChanges := s.registry.SubscribeChanges()
	defer cancelChanges()
	progress, cancelProgress := s.calibration.Updates()
	defer cancelProgress()

	for {
		select {
		case <-ctx.Done():
			s.setMode(ModeIdle)
			return nil
		case <-changes:
			s.publish()
		case <-progress:
			s.publish()
		}
	}
}

// RunDevice keeps trying to connect to the dongle and feeds its reports into
// the registry. Only an unsupported platform stops it early.
func (s *Service) RunDevice(ctx context.Context, connector Connector, retry time.Duration) error {
	for {
		dev, err := connector.Connect()
		switch {
		case errors.Is(err, domain.ErrUnsupportedPlatform):
			return err
		case err != nil:
			log.Printf("device: not connected: %v", err)
		default:
			log.Printf("device: connected")
			s.serveDevice(ctx, dev)
			log.Printf("device: disconnected")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retry):
		}
	}
}

func (s *Service) serveDevice(ctx context.Context, dev Device) {
	s.lights.attach(dev)
	s.registry.SetConnected(true)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = dev.Close()
		case <-done:
		}
	}()

	for {
		report, err := dev.ReadReport()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("device: read: %v", err)
			}
			break
		}
		s.registry.HandleReport(report)
	}

	close(done)
	_ = dev.Close()
	s.lights.attach(nil)
	s.registry.SetConnected(false)
}

// Registry exposes the controller registry.
func (s *Service) Registry() *Registry { return s.registry }

// Calibration exposes the mapping wizard.
func (s *Service) Calibration() *Calibration { return s.calibration }

// Mode returns the active consumer.
func (s *Service) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// InitBuzzer sets up a buzzer game and routes presses to the round arbiter.
func (s *Service) InitBuzzer(cfg domain.BuzzerConfig) error {
	if err := s.buzzer.Init(cfg); err != nil {
		return err
	}
	s.round.Close()
	s.setMode(ModeBuzzer)
	return nil
}

// StartBuzzer starts (or restarts after reset) the game and opens the first round.
func (s *Service) StartBuzzer() error {
	if err := s.buzzer.Start(); err != nil {
		return err
	}
	s.round.Open()
	return nil
}

func (s *Service) PauseBuzzer() error  { return s.buzzer.Pause() }
func (s *Service) ResumeBuzzer() error { return s.buzzer.Resume() }

// ResolveBuzz resolves the locked round as a correct or wrong answer.
func (s *Service) ResolveBuzz(correct bool) error {
	var err error
	if correct {
		err = s.round.ResolveCorrect()
	} else {
		err = s.round.ResolveWrong()
	}
	if err != nil {
		return err
	}
	_ = s.lights.SetLights([domain.ControllerCount]bool{})
	if w := s.buzzer.State().Winner; w != nil {
		go s.lights.celebrate(w.ControllerID)
	}
	return nil
}

func (s *Service) ResetBuzzer() {
	s.buzzer.Reset()
	s.round.Close()
}

// InitQuiz loads a quiz and routes presses to the answer router.
func (s *Service) InitQuiz(ctx context.Context, quizID string, players int, names ...string) error {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	s.quizRound.Reset()
	if err := s.quiz.Init(quiz, players, names...); err != nil {
		return err
	}
	s.setMode(ModeQuiz)
	return nil
}

func (s *Service) StartQuestion() error { return s.quizRound.BeginQuestion() }

// EndQuestion closes answering early.
func (s *Service) EndQuestion() error { return s.quiz.EndQuestion() }

// NextQuiz moves past results or the leaderboard.
func (s *Service) NextQuiz() error {
	if err := s.quizRound.Next(); err != nil {
		return err
	}
	if s.quiz.Phase() == domain.PhaseFinished {
		if w, ok := s.quiz.Winner(); ok {
			go s.lights.celebrate(w.ControllerID)
		}
	}
	return nil
}

// ShowLeaderboard enters the standings interlude when it is due.
func (s *Service) ShowLeaderboard() error { return s.quiz.ShowLeaderboard() }

func (s *Service) ResetQuiz() { s.quizRound.Reset() }

// StartCalibration detaches game modes and runs the mapping wizard.
func (s *Service) StartCalibration() {
	s.setMode(ModeCalibration)
}

// SaveCalibration persists the wizard result and returns to idle.
func (s *Service) SaveCalibration(ctx context.Context) (domain.ButtonMapping, error) {
	mapping, err := s.calibration.Save(ctx)
	if err != nil {
		return nil, err
	}
	s.setMode(ModeIdle)
	return mapping, nil
}

func (s *Service) SkipCalibration() error    { return s.calibration.Skip() }
func (s *Service) RestartCalibration() error { return s.calibration.Restart() }

// StopCalibration abandons the wizard.
func (s *Service) StopCalibration() {
	s.setMode(ModeIdle)
}

// ClearMapping reverts to the built-in layout.
func (s *Service) ClearMapping(ctx context.Context) error {
	if err := s.calibration.Clear(ctx); err != nil {
		return err
	}
	s.publish()
	return nil
}

// ListQuizzes returns built-in and custom quizzes.
func (s *Service) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.library.List(ctx)
}

// SaveQuiz stores a custom quiz.
func (s *Service) SaveQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	saved, err := s.library.Save(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(saved.ID)
	return saved, nil
}

// DeleteQuiz removes a custom quiz.
func (s *Service) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := s.library.Delete(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(quizID)
	return nil
}

// SetLights sets the handset LEDs directly.
func (s *Service) SetLights(on [domain.ControllerCount]bool) error {
	return s.lights.SetLights(on)
}

func (s *Service) SetDebugMode(debug bool) { s.registry.SetDebugMode(debug) }

// Subscribe returns a channel that receives a snapshot now and after every change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Service) Subscribe() (<-chan Snapshot, func()) {
	ch, cancel := s.snapshots.Subscribe()
	s.publish()
	return ch, cancel
}

// Snapshot builds the current view.
func (s *Service) Snapshot() Snapshot {
	mode := s.Mode()
	snap := Snapshot{
		Connected:   s.registry.Connected(),
		Mode:        mode,
		Mapping:     "default",
		Controllers: s.registry.States(),
		Recent:      s.registry.History(recentEvents),
	}
	if s.registry.Mapping() != nil {
		snap.Mapping = "custom"
	}
	if s.buzzer.Initialized() {
		state := s.buzzer.State()
		round := s.round.State()
		snap.Buzzer = &state
		snap.Round = &round
		snap.Ranking = s.buzzer.Standings()
	}
	if quiz := s.quiz.State(); quiz.Quiz != nil {
		snap.Quiz = &quiz
		snap.Standings = s.quiz.Standings()
	}
	if mode == ModeCalibration {
		progress := s.calibration.Progress()
		snap.Calibration = &progress
	}
	return snap
}

func (s *Service) publish() {
	s.snapshots.Publish(s.Snapshot())
}

func (s *Service) setMode(mode Mode) {
	// leaving quiz mode stops the get-ready timer and the countdown
	if mode != ModeQuiz && s.Mode() == ModeQuiz {
		s.quizRound.Reset()
	}

	s.mu.Lock()
	if s.stopMode != nil {
		s.stopMode()
		s.stopMode = nil
	}
	s.mode = mode

	switch mode {
	case ModeBuzzer, ModeQuiz:
		feed := s.registry.SubscribePresses()
		ctx, cancel := context.WithCancel(context.Background())
		if mode == ModeBuzzer {
			go s.round.Run(ctx, feed.C)
		} else {
			go s.quizRound.Run(ctx, feed.C)
		}
		s.stopMode = func() {
			cancel()
			feed.Cancel()
		}
	case ModeCalibration:
		s.registry.ClearPresses()
		s.calibration.Start(context.Background())
		s.stopMode = s.calibration.Stop
	default:
		s.registry.ClearPresses()
	}
	s.mu.Unlock()
	s.publish()
}

func (s *Service) invalidate(quizID string) {
	if inv, ok := s.quizzes.(interface{ Invalidate(string) }); ok {
		inv.Invalidate(quizID)
	}
}
