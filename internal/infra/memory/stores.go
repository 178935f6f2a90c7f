package memory

import (
	"context"
	"sort"
	"sync"

	"buzz-quiz-service/internal/domain"
)

// MappingStore keeps the custom button mapping for the lifetime of the process.
type MappingStore struct {
	mu      sync.RWMutex
	mapping domain.ButtonMapping
}

func NewMappingStore() *MappingStore {
	return &MappingStore{}
}

func (s *MappingStore) LoadMapping(_ context.Context) (domain.ButtonMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.mapping) == 0 {
		return nil, domain.ErrMappingNotFound
	}
	return append(domain.ButtonMapping(nil), s.mapping...), nil
}

func (s *MappingStore) SaveMapping(_ context.Context, mapping domain.ButtonMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapping = append(domain.ButtonMapping(nil), mapping...)
	return nil
}

func (s *MappingStore) ClearMapping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapping = nil
	return nil
}

// QuizStore keeps custom quizzes in a map, listed oldest first.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[string]domain.Quiz)}
}

func (s *QuizStore) LoadCustomQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		out = append(out, copyQuiz(q))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *QuizStore) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = copyQuiz(quiz)
	return nil
}

func (s *QuizStore) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}
