package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"buzz-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	mappingKey       = "buzz:mapping"
	customQuizzesKey = "buzz:quizzes:custom"
)

// MappingStore keeps the custom button mapping as a JSON string.
type MappingStore struct {
	client *redis.Client
}

func NewMappingStore(client *redis.Client) *MappingStore {
	return &MappingStore{client: client}
}

func (s *MappingStore) LoadMapping(ctx context.Context) (domain.ButtonMapping, error) {
	data, err := s.client.Get(ctx, mappingKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrMappingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping: %w", err)
	}
	var mapping domain.ButtonMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("unmarshal mapping: %w", err)
	}
	if len(mapping) == 0 {
		return nil, domain.ErrMappingNotFound
	}
	return mapping, nil
}

func (s *MappingStore) SaveMapping(ctx context.Context, mapping domain.ButtonMapping) error {
	data, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	return s.client.Set(ctx, mappingKey, data, 0).Err()
}

func (s *MappingStore) ClearMapping(ctx context.Context) error {
	return s.client.Del(ctx, mappingKey).Err()
}

// QuizStore keeps custom quizzes in a hash: HSET buzz:quizzes:custom {quizID} {json}
type QuizStore struct {
	client *redis.Client
}

func NewQuizStore(client *redis.Client) *QuizStore {
	return &QuizStore{client: client}
}

func (s *QuizStore) LoadCustomQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	entries, err := s.client.HGetAll(ctx, customQuizzesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	quizzes := make([]domain.Quiz, 0, len(entries))
	for id, raw := range entries {
		var quiz domain.Quiz
		if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
			return nil, fmt.Errorf("unmarshal quiz %s: %w", id, err)
		}
		quizzes = append(quizzes, quiz)
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].ID < quizzes[j].ID
		}
		return quizzes[i].CreatedAt.Before(quizzes[j].CreatedAt)
	})
	return quizzes, nil
}

func (s *QuizStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	return s.client.HSet(ctx, customQuizzesKey, quiz.ID, data).Err()
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID string) error {
	removed, err := s.client.HDel(ctx, customQuizzesKey, quizID).Result()
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if removed == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
