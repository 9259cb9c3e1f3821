// Package redis provides a SuspensionStore backed by Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/graphflow/store"
)

// RedisSuspensionStore implements store.SuspensionStore using Redis. Each
// suspension lives under its own key; a per-workflow set indexes them.
type RedisSuspensionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.SuspensionStore = (*RedisSuspensionStore)(nil)

// RedisOptions configure the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "graphflow:"
	TTL      time.Duration // Expiration for suspensions, default 0 (none)
}

// NewRedisSuspensionStore creates a store over a new Redis client.
func NewRedisSuspensionStore(opts RedisOptions) *RedisSuspensionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisSuspensionStoreWithClient(client, opts.Prefix, opts.TTL)
}

// NewRedisSuspensionStoreWithClient creates a store over an existing
// client; useful for tests.
func NewRedisSuspensionStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisSuspensionStore {
	if prefix == "" {
		prefix = "graphflow:"
	}
	return &RedisSuspensionStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisSuspensionStore) suspensionKey(id string) string {
	return fmt.Sprintf("%ssuspension:%s", s.prefix, id)
}

func (s *RedisSuspensionStore) workflowKey(id string) string {
	return fmt.Sprintf("%sworkflow:%s:suspensions", s.prefix, id)
}

// Save stores a suspension and indexes it by workflow.
func (s *RedisSuspensionStore) Save(ctx context.Context, susp *store.Suspension) error {
	data, err := json.Marshal(susp)
	if err != nil {
		return fmt.Errorf("failed to marshal suspension: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.suspensionKey(susp.ID), data, s.ttl)
	if susp.WorkflowID != "" {
		wkey := s.workflowKey(susp.WorkflowID)
		pipe.SAdd(ctx, wkey, susp.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, wkey, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save suspension to redis: %w", err)
	}
	return nil
}

// Load retrieves a suspension by ID.
func (s *RedisSuspensionStore) Load(ctx context.Context, id string) (*store.Suspension, error) {
	data, err := s.client.Get(ctx, s.suspensionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("suspension %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load suspension: %w", err)
	}

	var susp store.Suspension
	if err := json.Unmarshal(data, &susp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suspension: %w", err)
	}
	return &susp, nil
}

// List returns the suspensions of a workflow execution, oldest first.
func (s *RedisSuspensionStore) List(ctx context.Context, workflowID string) ([]*store.Suspension, error) {
	ids, err := s.client.SMembers(ctx, s.workflowKey(workflowID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list suspension ids: %w", err)
	}

	out := make([]*store.Suspension, 0, len(ids))
	for _, id := range ids {
		susp, err := s.Load(ctx, id)
		if err != nil {
			// Expired members linger in the index set; skip them.
			continue
		}
		out = append(out, susp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a suspension and its index entry.
func (s *RedisSuspensionStore) Delete(ctx context.Context, id string) error {
	susp, err := s.Load(ctx, id)
	if err != nil {
		return nil
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.suspensionKey(id))
	if susp.WorkflowID != "" {
		pipe.SRem(ctx, s.workflowKey(susp.WorkflowID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete suspension: %w", err)
	}
	return nil
}

// Clear removes all suspensions of a workflow execution.
func (s *RedisSuspensionStore) Clear(ctx context.Context, workflowID string) error {
	ids, err := s.client.SMembers(ctx, s.workflowKey(workflowID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list suspension ids: %w", err)
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.suspensionKey(id))
	}
	pipe.Del(ctx, s.workflowKey(workflowID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear suspensions: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisSuspensionStore) Close() error {
	return s.client.Close()
}
