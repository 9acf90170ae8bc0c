// Package snapshot mirrors the latest published metrics batch of each
// reporter into Redis so operators can inspect it without consuming the topic.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyPrefix is the Redis key prefix for reporter snapshots.
	KeyPrefix = "metrics:"
	// TTL is how long a snapshot stays in Redis if not refreshed.
	TTL = 2 * time.Minute

	StatusFresh   = "fresh"
	StatusStale   = "stale"
	StatusOffline = "offline"
)

// ErrNotFound is returned when no snapshot exists for a reporter.
var ErrNotFound = errors.New("no snapshot found")

// Snapshot is the latest batch published by one reporter.
type Snapshot struct {
	Reporter    string             `json:"reporter"`
	Topic       string             `json:"topic"`
	BatchID     string             `json:"batch_id"`
	PublishedAt time.Time          `json:"published_at"`
	Records     int                `json:"records"`
	Status      string             `json:"status"`
	Samples     map[string]float64 `json:"samples,omitempty"`
}

// Store writes snapshots to Redis.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore creates a store using client. A zero ttl uses TTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = TTL
	}
	return &Store{redis: client, ttl: ttl}
}

// Write stores snap under metrics:<reporter>.
func (s *Store) Write(ctx context.Context, snap Snapshot) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := KeyPrefix + snap.Reporter
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot to Redis: %w", err)
	}

	slog.Debug("Snapshot written to Redis", "reporter", snap.Reporter, "key", key)
	return nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}

// Reader reads reporter snapshots from Redis.
type Reader struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewReader creates a new snapshot reader.
func NewReader(client *redis.Client) *Reader {
	return &Reader{redis: client, ttl: TTL}
}

// Get retrieves the snapshot for reporter. Snapshots older than the TTL
// are reported as stale.
func (r *Reader) Get(ctx context.Context, reporter string) (*Snapshot, error) {
	data, err := r.redis.Get(ctx, KeyPrefix+reporter).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w for reporter: %s", ErrNotFound, reporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	snap.Status = statusAt(snap.PublishedAt, time.Now(), r.ttl)
	return &snap, nil
}

// All retrieves snapshots for every reporter present in Redis.
func (r *Reader) All(ctx context.Context) (map[string]*Snapshot, error) {
	result := make(map[string]*Snapshot)
	iter := r.redis.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		reporter := strings.TrimPrefix(iter.Val(), KeyPrefix)
		snap, err := r.Get(ctx, reporter)
		if err != nil {
			slog.Warn("Failed to read snapshot", "reporter", reporter, "error", err)
			continue
		}
		result[reporter] = snap
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshot keys: %w", err)
	}
	return result, nil
}

func statusAt(publishedAt, now time.Time, ttl time.Duration) string {
	if now.Sub(publishedAt) > ttl {
		return StatusStale
	}
	return StatusFresh
}
