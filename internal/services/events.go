package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/ruralpay/ledger/internal/models"
)

// EventPublisher fans committed ledger entries out to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, entry models.TransactionEntry) error
}

// RedisEventPublisher pushes each entry as JSON onto a Redis list
type RedisEventPublisher struct {
	redis *redis.Client
	key   string
}

func NewRedisEventPublisher(client *redis.Client, key string) *RedisEventPublisher {
	return &RedisEventPublisher{redis: client, key: key}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, entry models.TransactionEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := p.redis.RPush(ctx, p.key, data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event for account %d: %w", entry.Type, entry.AccountID, err)
	}
	return nil
}

// NoopEventPublisher is used when Redis is unavailable
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(ctx context.Context, entry models.TransactionEntry) error {
	return nil
}
