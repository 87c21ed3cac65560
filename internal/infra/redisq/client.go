package redisq

import (
	"context"
	"corequeue/internal/config"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Client struct {
	Cfg config.Redis
	Rdb *redis.Client
}

func New(cfg config.Redis) *Client {
	log.Info().Msgf("connecting to redis at %s", cfg.Addr)
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Client{Cfg: cfg, Rdb: c}
}

func (c *Client) Connect(ctx context.Context) error {
	if err := c.Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Ctx(ctx).Info().
		Str("queue", c.Cfg.QueueKey).
		Str("result_namespace", c.Cfg.ResultNamespace).
		Msg("connected to redis")
	return nil
}

func (c *Client) Close() error { return c.Rdb.Close() }

// Queue returns the durable ingress queue backed by this client.
func (c *Client) Queue() *ListQueue {
	return NewListQueue(c.Rdb, c.Cfg.QueueKey)
}

// Results returns the namespaced result store backed by this client.
func (c *Client) Results() *ResultStore {
	return NewResultStore(c.Rdb, c.Cfg.ResultNamespace)
}
