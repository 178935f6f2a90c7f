package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrBuiltInQuiz is returned when trying to modify or delete a built-in quiz.
	ErrBuiltInQuiz = errors.New("built-in quizzes are read-only")
	// ErrInvalidQuiz indicates a quiz failed validation before saving.
	ErrInvalidQuiz = errors.New("invalid quiz")

	// ErrNoGame is returned when acting on a game that was never initialized.
	ErrNoGame = errors.New("game not initialized")
	// ErrGameNotRunning is returned for scoring calls outside a running, unpaused game.
	ErrGameNotRunning = errors.New("game is not running")
	// ErrInvalidPlayerCount is returned when a game is set up with fewer than 2 or more than 4 players.
	ErrInvalidPlayerCount = errors.New("player count must be between 2 and 4")
	// ErrPlayerNotFound is returned when a controller id has no seat in the game.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrPlayerEliminated is returned when scoring an inactive player.
	ErrPlayerEliminated = errors.New("player has been eliminated")
	// ErrNoBuzz is returned when resolving a round nobody has buzzed in.
	ErrNoBuzz = errors.New("no player has buzzed")

	// ErrWrongPhase is returned when a quiz operation is not allowed in the current phase.
	ErrWrongPhase = errors.New("operation not allowed in current phase")
	// ErrDuplicateAnswer is returned when a controller answers the same question twice.
	ErrDuplicateAnswer = errors.New("controller already answered")
	// ErrInvalidAnswerIndex is returned for answers outside 0..3.
	ErrInvalidAnswerIndex = errors.New("answer index out of range")

	// ErrInvalidMapping indicates a button mapping failed validation.
	ErrInvalidMapping = errors.New("invalid button mapping")
	// ErrMappingNotFound is returned by stores when no custom mapping was saved.
	ErrMappingNotFound = errors.New("button mapping not found")
	// ErrCalibrationIncomplete is returned when saving before all steps resolved.
	ErrCalibrationIncomplete = errors.New("calibration not complete")
	// ErrCalibrationNotRunning is returned for wizard commands outside a calibration run.
	ErrCalibrationNotRunning = errors.New("calibration not running")

	// ErrUnsupportedPlatform is returned when HID access is unavailable on this OS.
	ErrUnsupportedPlatform = errors.New("hid access is not supported on this platform")
	// ErrNoDevice is returned when no Buzz dongle could be found or opened.
	ErrNoDevice = errors.New("no buzz device found")
	// ErrNotConnected is returned for device operations while disconnected.
	ErrNotConnected = errors.New("device not connected")
)
