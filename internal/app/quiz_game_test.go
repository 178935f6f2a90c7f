package app_test

import (
	"errors"
	"testing"
	"time"

	"buzz-quiz-service/internal/app"
	"buzz-quiz-service/internal/domain"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)}
}

// newQuizGame uses a countdown interval long enough to never tick during a test.
func newQuizGame(c *testClock) *app.QuizGame {
	return app.NewQuizGameWithClock(c.Now, time.Hour)
}

func question(id string, correct int) domain.QuizQuestion {
	return domain.QuizQuestion{ID: id, Text: "Question " + id, Options: [4]string{"A", "B", "C", "D"}, CorrectIndex: correct, TimeLimit: 20}
}

func threeQuestionQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "Three",
		Questions: []domain.QuizQuestion{question("q1", 1), question("q2", 2), question("q3", 0)},
	}
}

func TestCalculateQuizScore(t *testing.T) {
	cases := []struct {
		timeMs, limitMs, streak, want int
	}{
		{0, 20000, 0, 1500},
		{20000, 20000, 0, 1000},
		{5000, 20000, 5, 1875},
		{2000, 20000, 0, 1450},
		{25000, 20000, 0, 1000},
		{0, 20000, 9, 2000},
		{-1, 20000, 3, 0},
	}
	for _, tc := range cases {
		if got := app.CalculateQuizScore(tc.timeMs, tc.limitMs, tc.streak); got != tc.want {
			t.Fatalf("CalculateQuizScore(%d, %d, %d) = %d, want %d", tc.timeMs, tc.limitMs, tc.streak, got, tc.want)
		}
	}
}

func TestQuizEndToEndScoring(t *testing.T) {
	clock := newTestClock()
	game := newQuizGame(clock)

	if err := game.Init(threeQuestionQuiz(), 2); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := game.StartQuestion(); err != nil {
		t.Fatalf("start question: %v", err)
	}
	if game.State().TimeRemaining != 20 {
		t.Fatalf("expected 20s remaining, got %d", game.State().TimeRemaining)
	}
	if err := game.StartAnswering(); err != nil {
		t.Fatalf("start answering: %v", err)
	}
	if !game.TimerActive() {
		t.Fatalf("expected countdown running while answering")
	}

	clock.Advance(2 * time.Second)
	if err := game.RecordAnswer(0, 1); err != nil {
		t.Fatalf("record answer: %v", err)
	}
	if err := game.EndQuestion(); err != nil {
		t.Fatalf("end question: %v", err)
	}
	if game.TimerActive() {
		t.Fatalf("expected countdown stopped after end question")
	}

	state := game.State()
	if state.Phase != domain.PhaseResults {
		t.Fatalf("expected results phase, got %s", state.Phase)
	}
	p0, p1 := state.PlayerScores[0], state.PlayerScores[1]
	if p0.Score != 1450 || p0.Streak != 1 || p0.CorrectCount != 1 {
		t.Fatalf("unexpected player 0 score %+v", p0)
	}
	if p1.Score != 0 || p1.Streak != 0 {
		t.Fatalf("unexpected player 1 score %+v", p1)
	}
}

func TestQuizStreakBonusAndReset(t *testing.T) {
	clock := newTestClock()
	game := newQuizGame(clock)
	_ = game.Init(threeQuestionQuiz(), 2)

	play := func(answer int) {
		t.Helper()
		if err := game.StartQuestion(); err != nil {
			t.Fatalf("start question: %v", err)
		}
		_ = game.StartAnswering()
		if err := game.RecordAnswer(0, answer); err != nil {
			t.Fatalf("record: %v", err)
		}
		_ = game.EndQuestion()
	}

	play(1) // correct at t=0: 1500
	_ = game.NextQuestion()
	play(2) // correct with streak 1: 1500 + 100
	if got := game.State().PlayerScores[0]; got.Score != 3100 || got.Streak != 2 {
		t.Fatalf("expected 3100 with streak 2, got %+v", got)
	}
	_ = game.NextQuestion()
	play(3) // wrong
	if got := game.State().PlayerScores[0]; got.Score != 3100 || got.Streak != 0 || got.CorrectCount != 2 {
		t.Fatalf("expected streak reset after wrong answer, got %+v", got)
	}
}

func TestRecordAnswerRejections(t *testing.T) {
	clock := newTestClock()
	game := newQuizGame(clock)
	_ = game.Init(threeQuestionQuiz(), 2)
	_ = game.StartQuestion()

	if err := game.RecordAnswer(0, 1); !errors.Is(err, domain.ErrWrongPhase) {
		t.Fatalf("expected wrong phase before answering, got %v", err)
	}

	_ = game.StartAnswering()
	if err := game.RecordAnswer(0, 1); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if err := game.RecordAnswer(0, 2); !errors.Is(err, domain.ErrDuplicateAnswer) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if n := len(game.State().CurrentAnswers); n != 1 {
		t.Fatalf("expected 1 answer after duplicate, got %d", n)
	}
	if game.State().CurrentAnswers[0].AnswerIndex != 1 {
		t.Fatalf("expected first answer kept, not overwritten")
	}
	if err := game.RecordAnswer(1, 4); !errors.Is(err, domain.ErrInvalidAnswerIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
	if err := game.RecordAnswer(3, 0); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected unseated controller rejected, got %v", err)
	}
	if game.AllPlayersAnswered() {
		t.Fatalf("expected one player still to answer")
	}
	_ = game.RecordAnswer(1, 0)
	if !game.AllPlayersAnswered() {
		t.Fatalf("expected all players answered")
	}
	game.Reset()
}

func TestNextQuestionAndLeaderboard(t *testing.T) {
	clock := newTestClock()
	game := newQuizGame(clock)
	quiz := domain.Quiz{ID: "long", Title: "Long"}
	for i := 0; i < 4; i++ {
		quiz.Questions = append(quiz.Questions, question(string(rune('a'+i)), 0))
	}
	_ = game.Init(quiz, 2)

	finish := func() {
		t.Helper()
		_ = game.StartQuestion()
		_ = game.StartAnswering()
		if err := game.EndQuestion(); err != nil {
			t.Fatalf("end question: %v", err)
		}
	}

	for i := 0; i < 2; i++ {
		finish()
		if game.ShouldShowLeaderboard() {
			t.Fatalf("leaderboard not due after question %d", i+1)
		}
		if err := game.NextQuestion(); err != nil {
			t.Fatalf("next: %v", err)
		}
		state := game.State()
		if state.CurrentQuestionIndex != i+1 || state.Phase != domain.PhaseGetReady || len(state.CurrentAnswers) != 0 {
			t.Fatalf("unexpected state after next: %+v", state)
		}
	}

	finish()
	if !game.ShouldShowLeaderboard() {
		t.Fatalf("expected leaderboard after question 3")
	}
	if err := game.ShowLeaderboard(); err != nil {
		t.Fatalf("show leaderboard: %v", err)
	}
	_ = game.NextQuestion()

	finish()
	if game.ShouldShowLeaderboard() {
		t.Fatalf("leaderboard never shown after the last question")
	}
	if err := game.NextQuestion(); err != nil {
		t.Fatalf("next on last: %v", err)
	}
	state := game.State()
	if state.Phase != domain.PhaseFinished || state.CurrentQuestionIndex != 3 {
		t.Fatalf("expected finished on index 3, got %s index %d", state.Phase, state.CurrentQuestionIndex)
	}
}

func TestWinnerTieGoesToFirstSeat(t *testing.T) {
	clock := newTestClock()
	game := newQuizGame(clock)
	_ = game.Init(threeQuestionQuiz(), 3)
	_ = game.StartQuestion()
	_ = game.StartAnswering()
	_ = game.RecordAnswer(2, 1)
	_ = game.RecordAnswer(1, 1)
	_ = game.EndQuestion()

	w, ok := game.Winner()
	if !ok || w.ControllerID != 1 {
		t.Fatalf("expected controller 1 to win the tie, got %+v", w)
	}
	standings := game.Standings()
	if standings[0].ControllerID != 1 || standings[1].ControllerID != 2 || standings[2].ControllerID != 0 {
		t.Fatalf("unexpected standings %+v", standings)
	}
}

func TestResetKeepsQuizAndPlayers(t *testing.T) {
	clock := newTestClock()
	game := newQuizGame(clock)
	_ = game.Init(threeQuestionQuiz(), 2, "Ada", "Linus")
	_ = game.StartQuestion()
	_ = game.StartAnswering()
	_ = game.RecordAnswer(0, 1)
	_ = game.EndQuestion()
	_ = game.NextQuestion()

	game.Reset()
	state := game.State()
	if state.Phase != domain.PhaseLobby || state.CurrentQuestionIndex != 0 || len(state.CurrentAnswers) != 0 {
		t.Fatalf("unexpected state after reset %+v", state)
	}
	if state.Quiz == nil || state.Quiz.ID != "quiz-1" {
		t.Fatalf("expected quiz kept after reset")
	}
	if state.PlayerScores[0].Name != "Ada" || state.PlayerScores[0].Score != 0 || state.PlayerScores[0].CorrectCount != 0 {
		t.Fatalf("expected zeroed scores with names kept, got %+v", state.PlayerScores[0])
	}
}

func TestInitRejectsBadPlayerCount(t *testing.T) {
	game := newQuizGame(newTestClock())
	if err := game.Init(threeQuestionQuiz(), 1); !errors.Is(err, domain.ErrInvalidPlayerCount) {
		t.Fatalf("expected invalid player count, got %v", err)
	}
	if err := game.StartQuestion(); !errors.Is(err, domain.ErrNoGame) {
		t.Fatalf("expected no game, got %v", err)
	}
}

func TestCountdownExpiresQuestion(t *testing.T) {
	game := app.NewQuizGame(5 * time.Millisecond)
	quiz := domain.Quiz{ID: "fast", Title: "Fast", Questions: []domain.QuizQuestion{
		{ID: "f1", Text: "Quick?", Options: [4]string{"A", "B", "C", "D"}, CorrectIndex: 0, TimeLimit: 2},
	}}
	_ = game.Init(quiz, 2)
	_ = game.StartQuestion()
	_ = game.StartAnswering()

	deadline := time.Now().Add(2 * time.Second)
	for game.Phase() != domain.PhaseResults {
		if time.Now().After(deadline) {
			t.Fatalf("expected countdown to end the question")
		}
		time.Sleep(2 * time.Millisecond)
	}
	if game.TimerActive() {
		t.Fatalf("expected countdown stopped after expiry")
	}
	if got := game.State().TimeRemaining; got != 0 {
		t.Fatalf("expected 0 remaining, got %d", got)
	}
}
