// Package file provides a file-system backed execution store.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/exeflow/exeflow/pkg/persistence"
)

const dirPerm = 0o755

// Store writes one JSON document per execution under root/executions.
type Store struct {
	root string
}

// NewStore creates the store rooted at the given directory, accepting both a
// plain path and a file:// URL.
func NewStore(root string) (*Store, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	if err := os.MkdirAll(filepath.Join(cleanRoot, "executions"), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create executions directory: %w", err)
	}

	return &Store{root: cleanRoot}, nil
}

func (s *Store) SaveExecution(_ context.Context, record *persistence.ExecutionRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution record: %w", err)
	}

	path := s.recordPath(record.ExecutionID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write execution record: %w", err)
	}

	return nil
}

func (s *Store) GetExecution(_ context.Context, executionID string) (*persistence.ExecutionRecord, error) {
	data, err := os.ReadFile(s.recordPath(executionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.ErrNotFound
		}

		return nil, fmt.Errorf("failed to read execution record: %w", err)
	}

	var record persistence.ExecutionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution record: %w", err)
	}

	return &record, nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) recordPath(executionID string) string {
	return filepath.Join(s.root, "executions", executionID+".json")
}
