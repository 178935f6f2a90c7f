package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"buzz-quiz-service/internal/domain"
)

const mappingRow = 1

type MappingStore struct {
	db *sql.DB
}

func (s *MappingStore) LoadMapping(ctx context.Context) (domain.ButtonMapping, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM button_mappings WHERE id = ?`, mappingRow).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMappingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}
	var mapping domain.ButtonMapping
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
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
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO button_mappings (id, data, updated_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at_unix = excluded.updated_at_unix`,
		mappingRow, string(data), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	return nil
}

func (s *MappingStore) ClearMapping(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM button_mappings WHERE id = ?`, mappingRow); err != nil {
		return fmt.Errorf("clear mapping: %w", err)
	}
	return nil
}
