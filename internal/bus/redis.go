package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBus fans envelopes out over a Redis pub/sub channel
type RedisBus struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// DialRedis connects to Redis and verifies the connection with a PING
func DialRedis(ctx context.Context, rawURL, channel string, logger *slog.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisBus(client, channel, logger), nil
}

// NewRedisBus wraps an existing client
func NewRedisBus(client *redis.Client, channel string, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{client: client, channel: channel, logger: logger.With("bus", "redis")}
}

func (b *RedisBus) Publish(ctx context.Context, env Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, h Handler) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	// wait for the subscription confirmation so no publish is missed after return
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				env, err := Decode([]byte(msg.Payload))
				if err != nil {
					b.logger.Warn("dropping bus message", "error", err)
					continue
				}
				h(env)
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	if err := b.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
