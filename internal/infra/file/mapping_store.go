package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"buzz-quiz-service/internal/domain"
)

// MappingStore keeps the custom button mapping in a JSON file so a calibrated
// layout survives restarts without any database.
type MappingStore struct {
	path string
	mu   sync.Mutex
}

func NewMappingStore(path string) *MappingStore {
	return &MappingStore{path: path}
}

func (s *MappingStore) LoadMapping(_ context.Context) (domain.ButtonMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrMappingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
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

// SaveMapping writes through a temporary file so a crash never leaves a
// half-written mapping behind.
func (s *MappingStore) SaveMapping(_ context.Context, mapping domain.ButtonMapping) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create mapping dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".mapping-*.json")
	if err != nil {
		return fmt.Errorf("create temp mapping: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write mapping: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close mapping: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace mapping: %w", err)
	}
	return nil
}

func (s *MappingStore) ClearMapping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove mapping: %w", err)
	}
	return nil
}
