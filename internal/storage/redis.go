package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LJTian/SyndicateHub/internal/seen"
	"github.com/redis/go-redis/v9"
)

// RedisBackend 用一个 Set 保存 ID，每个 ID 另有一个 hash 保存元数据
type RedisBackend struct {
	Client *redis.Client
	Key    string
}

func NewRedisBackend(addr, key string) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisBackend{Client: rdb, Key: key}, nil
}

func (r *RedisBackend) Name() string { return "redis" }

func (r *RedisBackend) Load(ctx context.Context) ([]string, error) {
	return r.Client.SMembers(ctx, r.Key).Result()
}

// Append 在一个事务里写入元数据和 ID
func (r *RedisBackend) Append(ctx context.Context, e seen.Entry) error {
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.metaKey(e.ID), map[string]any{
			"title":     e.Title,
			"url":       e.URL,
			"location":  e.Location,
			"labels":    strings.Join(e.Labels, ","),
			"posted_at": e.PostedAt.UTC().Format(time.RFC3339),
		})
		pipe.SAdd(ctx, r.Key, e.ID)
		return nil
	})
	return err
}

// Location 返回某篇文章发布后的地址
func (r *RedisBackend) Location(ctx context.Context, id string) (string, error) {
	return r.Client.HGet(ctx, r.metaKey(id), "location").Result()
}

func (r *RedisBackend) metaKey(id string) string {
	return r.Key + ":" + id
}

func (r *RedisBackend) Close() error {
	return r.Client.Close()
}
