package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"buzz-quiz-service/internal/domain"
)

// QuizStore keeps each custom quiz as one JSON row.
type QuizStore struct {
	db *sql.DB
}

func (s *QuizStore) LoadCustomQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM quizzes ORDER BY created_at_unix ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
			return nil, fmt.Errorf("unmarshal quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM quizzes WHERE id = ?`, quizID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

// SaveQuiz inserts or replaces a quiz, keeping the first creation time.
func (s *QuizStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quizzes (id, data, created_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		quiz.ID, string(data), quiz.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ?`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
