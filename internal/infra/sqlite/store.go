// Package sqlite keeps the button mapping and custom quizzes in a local
// SQLite file, for hosts that run without Postgres or Redis.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const defaultPath = "buzz.db"

// Store owns the database handle shared by MappingStore and QuizStore.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Mappings() *MappingStore { return &MappingStore{db: s.db} }

func (s *Store) Quizzes() *QuizStore { return &QuizStore{db: s.db} }

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_quizzes_created_at ON quizzes(created_at_unix, id);`,
		`CREATE TABLE IF NOT EXISTS button_mappings (
			id INTEGER PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at_unix INTEGER NOT NULL
		);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
