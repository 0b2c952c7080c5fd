// Package redisstore is the StateStore shared by every process of the partner client.
// Writes go through a MULTI block that also PUBLISHes the change, so watchers in
// other processes see every Set and Delete.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"partner/internal/core/ports"
	"partner/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultChannel = "partner:state-changes"
	watchBuffer    = 64
)

type changeMessage struct {
	Key     string `json:"key"`
	Value   []byte `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Store implements ports.StateStore on a redis client.
type Store struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func New(client *redis.Client, channel string, logger *slog.Logger) (*Store, error) {
	if client == nil {
		return nil, errs.NewValueIsRequiredError("client")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &Store{client: client, channel: channel, logger: logger.With("component", "redisstore")}, nil
}

// Connect dials addr and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	msg, err := json.Marshal(changeMessage{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, 0)
		pipe.Publish(ctx, s.channel, msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key and publishes the deletion only if the key existed.
func (s *Store) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if n == 0 {
		return nil
	}
	msg, err := json.Marshal(changeMessage{Key: key, Deleted: true})
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if err = s.client.Publish(ctx, s.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish delete %s: %w", key, err)
	}
	return nil
}

// Watch subscribes to the change channel. The subscription is confirmed before
// Watch returns, so no write made afterwards is missed.
func (s *Store) Watch(ctx context.Context) (<-chan ports.StateChange, error) {
	sub := s.client.Subscribe(ctx, s.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	out := make(chan ports.StateChange, watchBuffer)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var cm changeMessage
				if err := json.Unmarshal([]byte(m.Payload), &cm); err != nil {
					s.logger.Warn("discarding malformed change message", "error", err)
					continue
				}
				select {
				case out <- ports.StateChange{Key: cm.Key, Value: cm.Value, Deleted: cm.Deleted}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
