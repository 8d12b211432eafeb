package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

var ErrEmptyGroup = errors.New("group is empty")

// Client fans group events out to every relay instance through redis pub/sub.
type Client struct {
	logger *slog.Logger
	client *redis.Client
}

func New(logger *slog.Logger, client *redis.Client) *Client {
	return &Client{
		logger: logger.With("component", "redis_broker"),
		client: client,
	}
}

func channelName(group string) string {
	return "game:" + group
}

// Publish sends payload to every subscriber of group.
func (that *Client) Publish(ctx context.Context, group string, payload []byte) error {
	if group == "" {
		return ErrEmptyGroup
	}

	if err := that.client.Publish(ctx, channelName(group), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to group %s: %w", group, err)
	}

	return nil
}

// Subscribe calls handler for every payload published to group until the returned
// unsubscribe func is called. The subscription is active when Subscribe returns.
func (that *Client) Subscribe(ctx context.Context, group string, handler func(payload []byte)) (func(), error) {
	log := that.logger.With("method", "Subscribe", "group", group)

	if group == "" {
		return nil, ErrEmptyGroup
	}

	pubsub := that.client.Subscribe(ctx, channelName(group))

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to group %s: %w", group, err)
	}

	messages := pubsub.Channel()

	go func() {
		for msg := range messages {
			handler([]byte(msg.Payload))
		}

		log.Debug("subscription closed")
	}()

	var once sync.Once

	return func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				log.Error("failed to close subscription", "error", err)
			}
		})
	}, nil
}
