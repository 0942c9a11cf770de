package projectdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

// Redis stores project records in Redis. Records live as JSON strings at
// {ns}:project:{id}; {ns}:projects holds all ids and {ns}:tool:{tool}
// indexes ids per tool for similarity queries.
type Redis struct {
	rdb *redis.Client
	ns  string
}

// NewRedis creates a Redis-backed store.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is empty")
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = "edatune"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{rdb: rdb, ns: ns}, nil
}

// Ping verifies connectivity.
func (s *Redis) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Redis) projectKey(id string) string {
	return fmt.Sprintf("%s:project:%s", s.ns, id)
}

func (s *Redis) toolKey(tool string) string {
	return fmt.Sprintf("%s:tool:%s", s.ns, tool)
}

func (s *Redis) indexKey() string {
	return s.ns + ":projects"
}

// Put inserts or replaces a record.
func (s *Redis) Put(ctx context.Context, rec *ProjectRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	stored := rec.Clone()
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}

	// Keep the tool index consistent when a project moves between tools.
	old, err := s.Get(ctx, stored.ID)
	if err != nil && !IsNotFound(err) {
		return err
	}
	if old != nil && old.Tool != stored.Tool {
		if err := s.rdb.SRem(ctx, s.toolKey(old.Tool), stored.ID).Err(); err != nil {
			return fmt.Errorf("updating tool index: %w", err)
		}
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshaling project record: %w", err)
	}
	if err := s.rdb.Set(ctx, s.projectKey(stored.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("writing project record: %w", err)
	}
	if err := s.rdb.SAdd(ctx, s.indexKey(), stored.ID).Err(); err != nil {
		return fmt.Errorf("updating project index: %w", err)
	}
	if err := s.rdb.SAdd(ctx, s.toolKey(stored.Tool), stored.ID).Err(); err != nil {
		return fmt.Errorf("updating tool index: %w", err)
	}
	return nil
}

// Get returns a record by project id.
func (s *Redis) Get(ctx context.Context, id string) (*ProjectRecord, error) {
	payload, err := s.rdb.Get(ctx, s.projectKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("reading project record: %w", err)
	}
	var rec ProjectRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling project record: %w", err)
	}
	return &rec, nil
}

// List returns all records, newest first.
func (s *Redis) List(ctx context.Context) ([]*ProjectRecord, error) {
	ids, err := s.rdb.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("reading project index: %w", err)
	}
	return s.fetch(ctx, ids)
}

func (s *Redis) fetch(ctx context.Context, ids []string) ([]*ProjectRecord, error) {
	records := make([]*ProjectRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil {
			// Index entries can outlive deleted keys.
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}
	sortNewestFirst(records)
	return records, nil
}

// FindSimilar ranks same-tool records by context similarity.
func (s *Redis) FindSimilar(ctx context.Context, tool string, attrs map[string]any, k int) ([]Match, error) {
	if k <= 0 || len(attrs) == 0 {
		return nil, nil
	}
	ids, err := s.rdb.SMembers(ctx, s.toolKey(tool)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading tool index: %w", err)
	}
	records, err := s.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	return rankSimilar(records, tool, attrs, k), nil
}

// Close closes the connection.
func (s *Redis) Close() error {
	return s.rdb.Close()
}
