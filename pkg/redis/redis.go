package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"staffbot/config"
)

// Client Redis 客户端封装
// 当前用于多轮对话状态存储；后续可扩展缓存、分布式锁等场景
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 对话状态存储 ──

const dialogPrefix = "dialog:state:"

// SetDialogState 写入某个会话的对话状态（JSON 序列化由调用方完成）
func (c *Client) SetDialogState(ctx context.Context, chatID int64, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, dialogKey(chatID), payload, ttl).Err()
}

// GetDialogState 读取某个会话的对话状态；不存在时返回 (nil, nil)
func (c *Client) GetDialogState(ctx context.Context, chatID int64) ([]byte, error) {
	data, err := c.rdb.Get(ctx, dialogKey(chatID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ClearDialogState 删除某个会话的对话状态
func (c *Client) ClearDialogState(ctx context.Context, chatID int64) error {
	return c.rdb.Del(ctx, dialogKey(chatID)).Err()
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

func dialogKey(chatID int64) string {
	return fmt.Sprintf("%s%d", dialogPrefix, chatID)
}
