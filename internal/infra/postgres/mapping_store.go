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

// there is one dongle per host, so the mapping lives in a single row
const mappingRow = 1

// MappingStore keeps the custom button mapping as a JSONB row.
type MappingStore struct {
	pool *pgxpool.Pool
}

func NewMappingStore(pool *pgxpool.Pool) *MappingStore {
	return &MappingStore{pool: pool}
}

func (s *MappingStore) LoadMapping(ctx context.Context) (domain.ButtonMapping, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM button_mappings WHERE id=$1`, mappingRow).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMappingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}
	var mapping domain.ButtonMapping
	if err := json.Unmarshal(raw, &mapping); err != nil {
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
	_, err = s.pool.Exec(ctx,
		`INSERT INTO button_mappings (id, data, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		mappingRow, string(data))
	if err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	return nil
}

func (s *MappingStore) ClearMapping(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM button_mappings WHERE id=$1`, mappingRow); err != nil {
		return fmt.Errorf("clear mapping: %w", err)
	}
	return nil
}
