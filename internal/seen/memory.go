package seen

import (
	"context"
	"sync"
)

// MemoryBackend 进程内存储，用于测试和 dry-run
type MemoryBackend struct {
	mu      sync.Mutex
	entries []Entry
	// 非 nil 时 Load/Append 直接返回该错误
	LoadErr   error
	AppendErr error
}

func NewMemoryBackend(ids ...string) *MemoryBackend {
	m := &MemoryBackend{}
	for _, id := range ids {
		m.entries = append(m.entries, Entry{ID: id})
	}
	return m
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Load(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	ids := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

func (m *MemoryBackend) Append(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *MemoryBackend) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *MemoryBackend) Close() error { return nil }
