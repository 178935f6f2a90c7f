package domain

import "time"

// ControllerCount is the number of handsets served by one Buzz dongle.
const ControllerCount = 4

// Button identifies one of the five buttons on a Buzz handset.
type Button string

const (
	ButtonRed    Button = "red"
	ButtonBlue   Button = "blue"
	ButtonOrange Button = "orange"
	ButtonGreen  Button = "green"
	ButtonYellow Button = "yellow"
)

// Buttons lists the buttons in calibration visiting order.
var Buttons = [...]Button{ButtonRed, ButtonBlue, ButtonOrange, ButtonGreen, ButtonYellow}

// Valid reports whether b is one of the five known buttons.
func (b Button) Valid() bool {
	for _, known := range Buttons {
		if b == known {
			return true
		}
	}
	return false
}

// ControllerButtonState is a full snapshot of one handset's buttons.
type ControllerButtonState struct {
	Red    bool `json:"red"`
	Blue   bool `json:"blue"`
	Orange bool `json:"orange"`
	Green  bool `json:"green"`
	Yellow bool `json:"yellow"`
}

// Pressed returns the state of a single button.
func (s ControllerButtonState) Pressed(b Button) bool {
	switch b {
	case ButtonRed:
		return s.Red
	case ButtonBlue:
		return s.Blue
	case ButtonOrange:
		return s.Orange
	case ButtonGreen:
		return s.Green
	case ButtonYellow:
		return s.Yellow
	}
	return false
}

// With returns a copy of s with button b set to pressed.
func (s ControllerButtonState) With(b Button, pressed bool) ControllerButtonState {
	switch b {
	case ButtonRed:
		s.Red = pressed
	case ButtonBlue:
		s.Blue = pressed
	case ButtonOrange:
		s.Orange = pressed
	case ButtonGreen:
		s.Green = pressed
	case ButtonYellow:
		s.Yellow = pressed
	}
	return s
}

// ControllerStates holds the decoded state of all four handsets, indexed by controller id.
type ControllerStates [ControllerCount]ControllerButtonState

// MappingEntry locates one (controller, button) signal inside a raw report.
type MappingEntry struct {
	ControllerID int    `json:"controllerId"`
	Button       Button `json:"button"`
	ByteIndex    int    `json:"byteIndex"`
	BitMask      byte   `json:"bitMask"`
}

// ButtonMapping is a custom report layout. A complete mapping has 20 entries.
type ButtonMapping []MappingEntry

// BuzzEvent records a single 0->1 button transition.
type BuzzEvent struct {
	ControllerID int       `json:"controllerId"`
	Button       Button    `json:"button"`
	Timestamp    time.Time `json:"timestamp"`
}

// BuzzerMode selects the rules applied by the buzzer round arbiter.
type BuzzerMode string

const (
	ModeFirstToBuzz BuzzerMode = "first-to-buzz"
	ModeSpeedRound  BuzzerMode = "speed-round"
	ModeElimination BuzzerMode = "elimination"
)

// BuzzerConfig configures a new buzzer game.
type BuzzerConfig struct {
	NumberOfPlayers int        `json:"numberOfPlayers"`
	RoundsToWin     int        `json:"roundsToWin"`
	Mode            BuzzerMode `json:"mode"`
	Names           []string   `json:"names,omitempty"`
}

// BuzzerPlayer is one seat in a buzzer game, bound to a controller.
type BuzzerPlayer struct {
	ControllerID int    `json:"controllerId"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	Score        int    `json:"score"`
	IsActive     bool   `json:"isActive"`
}

// BuzzerGameState is the full state of a buzzer game.
type BuzzerGameState struct {
	IsRunning    bool           `json:"isRunning"`
	IsPaused     bool           `json:"isPaused"`
	CurrentRound int            `json:"currentRound"`
	TotalRounds  int            `json:"totalRounds"`
	Players      []BuzzerPlayer `json:"players"`
	Winner       *BuzzerPlayer  `json:"winner"`
	Mode         BuzzerMode     `json:"mode"`
}

// QuizQuestion is a multiple-choice question with exactly four options.
type QuizQuestion struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Options      [4]string `json:"options"`
	CorrectIndex int       `json:"correctIndex"`
	TimeLimit    int       `json:"timeLimit"` // seconds
}

// Quiz is an ordered list of questions. Built-in quizzes cannot be modified.
type Quiz struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Questions   []QuizQuestion `json:"questions"`
	BuiltIn     bool           `json:"builtIn,omitempty"`
	CreatedAt   time.Time      `json:"createdAt,omitempty"`
}

// NoAnswer marks a player who did not answer in time.
const NoAnswer = -1

// QuizAnswer is one player's answer to the current question.
type QuizAnswer struct {
	ControllerID int  `json:"controllerId"`
	AnswerIndex  int  `json:"answerIndex"`
	TimeMs       int  `json:"timeMs"`
	IsCorrect    bool `json:"isCorrect"`
}

// QuizPlayerScore tracks a player across a quiz session.
type QuizPlayerScore struct {
	ControllerID int    `json:"controllerId"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	Score        int    `json:"score"`
	Streak       int    `json:"streak"`
	CorrectCount int    `json:"correctCount"`
}

// Phase is a step of the quiz session state machine.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseGetReady    Phase = "get-ready"
	PhaseAnswering   Phase = "answering"
	PhaseResults     Phase = "results"
	PhaseLeaderboard Phase = "leaderboard"
	PhaseFinished    Phase = "finished"
)

// QuizGameState is the full state of a quiz session.
type QuizGameState struct {
	Quiz                 *Quiz             `json:"quiz"`
	Phase                Phase             `json:"phase"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	PlayerScores         []QuizPlayerScore `json:"playerScores"`
	CurrentAnswers       []QuizAnswer      `json:"currentAnswers"`
	QuestionStartTime    time.Time         `json:"questionStartTime"`
	TimeRemaining        int               `json:"timeRemaining"`
}

// CurrentQuestion returns the active question, if any.
func (s QuizGameState) CurrentQuestion() (QuizQuestion, bool) {
	if s.Quiz == nil || s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Quiz.Questions) {
		return QuizQuestion{}, false
	}
	return s.Quiz.Questions[s.CurrentQuestionIndex], true
}

// SlotNames and SlotColors are the defaults assigned to controller slots 0..3.
var (
	SlotNames  = [ControllerCount]string{"Player 1", "Player 2", "Player 3", "Player 4"}
	SlotColors = [ControllerCount]string{"#ef4444", "#3b82f6", "#22c55e", "#eab308"}
)
