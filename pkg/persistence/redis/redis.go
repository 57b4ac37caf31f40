// Package redis provides a Redis backed execution store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/exeflow/exeflow/pkg/persistence"
)

const keyPrefix = "exeflow:execution:"

// Store keeps one JSON value per execution, with an optional TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore connects to the Redis instance described by url
// (redis://host:port/db). A zero ttl keeps records forever.
func NewStore(url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &Store{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (s *Store) SaveExecution(ctx context.Context, record *persistence.ExecutionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal execution record: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+record.ExecutionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store execution record: %w", err)
	}

	return nil
}

func (s *Store) GetExecution(ctx context.Context, executionID string) (*persistence.ExecutionRecord, error) {
	data, err := s.client.Get(ctx, keyPrefix+executionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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
	return s.client.Close()
}
