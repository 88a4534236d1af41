package stages

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Sink is the destination the terminal stage writes envelopes to.
type Sink interface {
	// Store writes one envelope. accepted reports whether the sink took
	// it; a sink may decline without error (for example when full).
	Store(ctx context.Context, env Envelope) (accepted bool, err error)

	// Close releases sink resources. Idempotent.
	Close() error
}

// RedisStreamSink appends envelopes to a Redis stream. The client dials
// lazily on first write.
type RedisStreamSink struct {
	client    *redis.Client
	stream    string
	closeOnce sync.Once
	closeErr  error
}

// NewRedisStreamSink creates a sink writing to the stream key on the Redis
// server at addr (host:port).
func NewRedisStreamSink(addr, stream string) *RedisStreamSink {
	return &RedisStreamSink{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		stream: stream,
	}
}

// Store appends the envelope to the stream as a single JSON field.
func (s *RedisStreamSink) Store(ctx context.Context, env Envelope) (bool, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return false, err
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{"envelope": data},
	}).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the Redis connection.
func (s *RedisStreamSink) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

// MemorySink buffers envelopes in memory, declining new ones once the
// capacity is reached. Capacity 0 means unbounded. Used in tests and as a
// stand-in when no export target is configured.
type MemorySink struct {
	mu       sync.Mutex
	capacity int
	entries  []Envelope
}

// NewMemorySink creates a memory sink with the given capacity.
func NewMemorySink(capacity int) *MemorySink {
	return &MemorySink{capacity: capacity}
}

// Store buffers the envelope, declining when the sink is full.
func (s *MemorySink) Store(_ context.Context, env Envelope) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capacity > 0 && len(s.entries) >= s.capacity {
		return false, nil
	}
	s.entries = append(s.entries, env)
	return true, nil
}

// Close is a no-op for the memory sink.
func (s *MemorySink) Close() error { return nil }

// Entries returns a copy of everything stored so far.
func (s *MemorySink) Entries() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Envelope, len(s.entries))
	copy(out, s.entries)
	return out
}
