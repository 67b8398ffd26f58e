package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/LJTian/SyndicateHub/internal/config"
	"github.com/LJTian/SyndicateHub/internal/seen"
)

var ErrUnknownBackend = errors.New("unknown seen backend")

// Open 按配置选择发布记录的存储，连接失败直接返回错误
func Open(cfg *config.Config) (seen.Backend, error) {
	switch cfg.SeenBackend {
	case "", "file":
		return NewFileBackend(cfg.SeenFile), nil
	case "postgres":
		return NewPostgresBackend(cfg.PostgresDSN)
	case "redis":
		return NewRedisBackend(cfg.RedisAddr, cfg.RedisKey)
	case "sqlite":
		return NewSQLiteBackend(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, cfg.SeenBackend)
	}
}

// Dial 与 Open 相同，但连接失败不阻止启动：返回的存储在每次 Load/Append 时重连。
// 期间 Load 失败会让本轮按空集合运行，Append 失败则该文章记为失败
func Dial(cfg *config.Config, log *slog.Logger) (seen.Backend, error) {
	b, err := Open(cfg)
	if err == nil {
		return b, nil
	}
	if errors.Is(err, ErrUnknownBackend) {
		return nil, err
	}
	log.Warn("seen backend unavailable, will reconnect on use",
		"backend", cfg.SeenBackend, "err", err)
	return NewLazyBackend(cfg.SeenBackend, func() (seen.Backend, error) { return Open(cfg) }), nil
}
