package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LogSink stores session logs so that a client can replay them from the start.
// Sinks only ever append.
type LogSink interface {
	Append(ctx context.Context, sessionID string, e Event) error
	Replay(ctx context.Context, sessionID string) ([]Event, error)
}

// MemorySink keeps logs in process.
type MemorySink struct {
	mu   sync.RWMutex
	logs map[string][]Event
}

// NewMemorySink creates an empty in-process sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{logs: make(map[string][]Event)}
}

func (s *MemorySink) Append(_ context.Context, sessionID string, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[sessionID] = append(s.logs[sessionID], e)
	return nil
}

func (s *MemorySink) Replay(_ context.Context, sessionID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event(nil), s.logs[sessionID]...), nil
}

// DefaultLogTTL is how long Redis keeps a session log after its last append.
const DefaultLogTTL = 24 * time.Hour

// RedisSink stores each session log as a Redis list, so that every API node can replay it.
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSink creates a sink on client. ttl <= 0 selects DefaultLogTTL.
func NewRedisSink(client *redis.Client, ttl time.Duration) *RedisSink {
	if ttl <= 0 {
		ttl = DefaultLogTTL
	}
	return &RedisSink{client: client, ttl: ttl}
}

func logKey(sessionID string) string {
	return "sync:session:" + sessionID + ":log"
}

func (s *RedisSink) Append(ctx context.Context, sessionID string, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := logKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append session log: %w", err)
	}
	return nil
}

func (s *RedisSink) Replay(ctx context.Context, sessionID string) ([]Event, error) {
	raw, err := s.client.LRange(ctx, logKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session log: %w", err)
	}
	events := make([]Event, 0, len(raw))
	for _, r := range raw {
		var e Event
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("corrupt session log entry: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

// NewSink picks the Redis sink when a client is configured.
func NewSink(client *redis.Client, ttl time.Duration) LogSink {
	if client == nil {
		return NewMemorySink()
	}
	return NewRedisSink(client, ttl)
}
