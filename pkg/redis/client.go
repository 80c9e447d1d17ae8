package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds Redis connection configuration
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Client wraps the go-redis client. The auth service uses it as the revocation
// store for issued tokens.
type Client struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewClient creates a Redis client and verifies connectivity
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	client := &Client{rdb: rdb, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger != nil {
		logger.Info("Successfully connected to Redis",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.Int("database", cfg.DB),
		)
	}

	return client, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetWithTTL stores a key that expires after ttl
func (c *Client) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		if c.logger != nil {
			c.logger.Error("Failed to set key",
				zap.String("key", key),
				zap.Duration("ttl", ttl),
				zap.Error(err),
			)
		}
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// Exists reports whether a key is present
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		if c.logger != nil {
			c.logger.Error("Failed to check key",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return false, fmt.Errorf("failed to check key: %w", err)
	}
	return n > 0, nil
}
