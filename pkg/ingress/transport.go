package ingress

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Transport is the receive side of the ingress wire. The adapter depends
// only on this contract: connect, receive the next payload, close.
type Transport interface {
	// Connect establishes the subscribing connection. Called once, from
	// the adapter's Initialize.
	Connect(ctx context.Context) error

	// Receive blocks until the next payload arrives or the transport is
	// closed, in which case it returns an error.
	Receive(ctx context.Context) ([]byte, error)

	// Close releases the connection. Safe to call while Receive is
	// blocked, and safe to call more than once or before Connect.
	Close() error
}

// RedisTransport subscribes to all pub/sub channels on a Redis server and
// delivers each published payload in arrival order.
type RedisTransport struct {
	addr   string
	client *redis.Client
	sub    *redis.PubSub
}

// NewRedisTransport creates a transport for the Redis server at addr
// (host:port). No connection is made until Connect.
func NewRedisTransport(addr string) *RedisTransport {
	return &RedisTransport{addr: addr}
}

// Connect dials the server and subscribes to every channel.
func (t *RedisTransport) Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{Addr: t.addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ingress transport %s: %w", t.addr, err)
	}

	sub := client.PSubscribe(ctx, "*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		_ = client.Close()
		return fmt.Errorf("ingress transport %s: subscribe: %w", t.addr, err)
	}

	t.client = client
	t.sub = sub
	return nil
}

// Receive blocks for the next published message and returns its payload.
func (t *RedisTransport) Receive(ctx context.Context) ([]byte, error) {
	msg, err := t.sub.ReceiveMessage(ctx)
	if err != nil {
		return nil, err
	}
	return []byte(msg.Payload), nil
}

// Close unsubscribes and releases the connection.
func (t *RedisTransport) Close() error {
	var err error
	if t.sub != nil {
		err = t.sub.Close()
		t.sub = nil
	}
	if t.client != nil {
		if cerr := t.client.Close(); err == nil {
			err = cerr
		}
		t.client = nil
	}
	return err
}
