package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cfgpkg "github.com/taoyao-code/suntech-server/internal/config"
	"github.com/taoyao-code/suntech-server/internal/tracker"
)

// RedisSink 把事件 LPUSH 进一个定长列表，供外部消费或排障回放。
// LPUSH 与 LTRIM 走同一个事务管道，列表长度恒不超过 maxLen。
type RedisSink struct {
	client *redis.Client
	key    string
	maxLen int64
}

// NewRedisSink 创建 Redis sink 并探活。
func NewRedisSink(cfg cfgpkg.RedisSinkConfig) (*RedisSink, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis sink is not enabled")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisSink{client: rdb, key: cfg.Key, maxLen: cfg.MaxLen}, nil
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Write(ctx context.Context, ev tracker.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, payload)
	pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis push: %w", err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
