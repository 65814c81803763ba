package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// RedisOptionsFrom reads redis.* keys from v. The pool is sized for the
// account locker, which holds one connection per retry loop.
func RedisOptionsFrom(v *viper.Viper) *redis.Options {
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 2*time.Second)

	return &redis.Options{
		Addr:         v.GetString("redis.host") + ":" + v.GetString("redis.port"),
		Password:     v.GetString("redis.password"),
		DB:           v.GetInt("redis.db"),
		PoolSize:     v.GetInt("redis.pool_size"),
		MinIdleConns: v.GetInt("redis.min_idle_conns"),
		DialTimeout:  v.GetDuration("redis.dial_timeout"),
	}
}

// OpenRedis connects to Redis and pings it. The client is closed again when
// the ping fails.
func OpenRedis(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to redis at %s: %w", opts.Addr, err)
	}

	log.Printf("[REDIS] Connected to %s (pool %d)", opts.Addr, opts.PoolSize)
	return client, nil
}
