package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"buzz-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": sampleQuiz()}}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("buzz:quiz:quiz-1") {
		t.Fatalf("expected quiz cached in redis")
	}
	if ttl := mr.TTL("buzz:quiz:quiz-1"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with jitter, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, _ := repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Questions[0].Options != quiz.Questions[0].Options || cached.Questions[0].CorrectIndex != 1 {
		t.Fatalf("expected full quiz from cache, got %+v", cached)
	}

	repo.Invalidate("quiz-1")
	if mr.Exists("buzz:quiz:quiz-1") {
		t.Fatalf("expected cache entry removed")
	}
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestQuizRepositoryNotFound(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuizRepository(newClient(mr), &countingLoader{}, time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if mr.Exists("buzz:quiz:missing") {
		t.Fatalf("misses must not be cached")
	}
}

type countingLoader struct {
	quizzes map[string]domain.Quiz
	calls   int
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Arithmetic",
		Questions: []domain.QuizQuestion{
			{ID: "q1", Text: "What is 2 + 2?", Options: [4]string{"3", "4", "5", "22"}, CorrectIndex: 1, TimeLimit: 20},
		},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
