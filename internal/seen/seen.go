package seen

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Entry 一条发布记录。去重只看 ID，其余字段供支持元数据的存储使用
type Entry struct {
	ID       string
	Title    string
	URL      string
	Location string
	Labels   []string
	PostedAt time.Time
}

// Backend 已发布记录的持久化存储，只追加不删除
type Backend interface {
	Name() string
	Load(ctx context.Context) ([]string, error)
	Append(ctx context.Context, e Entry) error
	Close() error
}

// Set 已发布文章 ID 集合：启动时全量加载一次，之后只追加
type Set struct {
	backend Backend
	log     *slog.Logger

	mu  sync.RWMutex
	ids map[string]struct{}
}

// Open 加载历史记录。读取失败时按空集合继续，可能导致重复发布，只记录告警
func Open(ctx context.Context, backend Backend, log *slog.Logger) *Set {
	s := &Set{
		backend: backend,
		log:     log,
		ids:     make(map[string]struct{}),
	}

	ids, err := backend.Load(ctx)
	if err != nil {
		log.Warn("seen: load failed, continuing with empty set; already-posted articles may be reposted",
			"backend", backend.Name(), "err", err)
		return s
	}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	log.Info("seen: loaded", "backend", backend.Name(), "count", len(s.ids))
	return s
}

func (s *Set) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Record 先写入存储，成功后才计入内存集合
func (s *Set) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("seen: empty id")
	}
	if e.PostedAt.IsZero() {
		e.PostedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Append(ctx, e); err != nil {
		return fmt.Errorf("seen: append %s: %w", e.ID, err)
	}
	s.ids[e.ID] = struct{}{}
	return nil
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Set) Close() error {
	return s.backend.Close()
}
