package app

import (
	"context"
	"fmt"
	"time"

	"buzz-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// CustomQuizStore persists quizzes authored by the host.
type CustomQuizStore interface {
	LoadCustomQuizzes(ctx context.Context) ([]domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizLibrary combines the read-only built-in quizzes with custom ones.
type QuizLibrary struct {
	builtIn []domain.Quiz
	store   CustomQuizStore
	now     func() time.Time
	newID   func() string
}

func NewQuizLibrary(store CustomQuizStore, builtIn []domain.Quiz) *QuizLibrary {
	quizzes := make([]domain.Quiz, len(builtIn))
	for i, q := range builtIn {
		q.BuiltIn = true
		quizzes[i] = q
	}
	return &QuizLibrary{
		builtIn: quizzes,
		store:   store,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// List returns built-in quizzes followed by custom ones.
func (l *QuizLibrary) List(ctx context.Context) ([]domain.Quiz, error) {
	custom, err := l.store.LoadCustomQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load custom quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(l.builtIn)+len(custom))
	out = append(out, l.builtIn...)
	out = append(out, custom...)
	return out, nil
}

// LoadQuiz looks a quiz up by id, built-ins first.
func (l *QuizLibrary) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if q, ok := l.findBuiltIn(quizID); ok {
		return q, nil
	}
	custom, err := l.store.LoadCustomQuizzes(ctx)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load custom quizzes: %w", err)
	}
	for _, q := range custom {
		if q.ID == quizID {
			return q, nil
		}
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// GetQuiz satisfies QuizRepository without caching.
func (l *QuizLibrary) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return l.LoadQuiz(ctx, quizID)
}

// Save validates and stores a custom quiz, assigning an id to new ones.
func (l *QuizLibrary) Save(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if _, ok := l.findBuiltIn(quiz.ID); ok {
		return domain.Quiz{}, domain.ErrBuiltInQuiz
	}
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ID == "" {
		quiz.ID = l.newID()
	}
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == "" {
			quiz.Questions[i].ID = fmt.Sprintf("%s-q%d", quiz.ID, i+1)
		}
	}
	quiz.BuiltIn = false
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = l.now().UTC()
	}
	if err := l.store.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("save quiz: %w", err)
	}
	return quiz, nil
}

// Delete removes a custom quiz. Built-in quizzes cannot be deleted.
func (l *QuizLibrary) Delete(ctx context.Context, quizID string) error {
	if _, ok := l.findBuiltIn(quizID); ok {
		return domain.ErrBuiltInQuiz
	}
	return l.store.DeleteQuiz(ctx, quizID)
}

func (l *QuizLibrary) findBuiltIn(quizID string) (domain.Quiz, bool) {
	if quizID == "" {
		return domain.Quiz{}, false
	}
	for _, q := range l.builtIn {
		if q.ID == quizID {
			return cloneQuiz(q), true
		}
	}
	return domain.Quiz{}, false
}
