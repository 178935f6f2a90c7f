package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"buzz-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizStore keeps custom quizzes as JSONB rows.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) LoadCustomQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM quizzes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return nil, fmt.Errorf("unmarshal quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

// LoadQuiz fetches a single custom quiz.
func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, data, created_at) VALUES ($1, $2::jsonb, $3)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		quiz.ID, string(data), quiz.CreatedAt)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
