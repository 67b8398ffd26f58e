package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/LJTian/SyndicateHub/internal/seen"
)

// LazyBackend 首次使用时才建立连接，失败后下次调用重试
type LazyBackend struct {
	name string
	open func() (seen.Backend, error)

	mu sync.Mutex
	b  seen.Backend
}

func NewLazyBackend(name string, open func() (seen.Backend, error)) *LazyBackend {
	return &LazyBackend{name: name, open: open}
}

func (l *LazyBackend) Name() string { return l.name }

func (l *LazyBackend) get() (seen.Backend, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.b != nil {
		return l.b, nil
	}
	b, err := l.open()
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", l.name, err)
	}
	l.b = b
	return b, nil
}

func (l *LazyBackend) Load(ctx context.Context) ([]string, error) {
	b, err := l.get()
	if err != nil {
		return nil, err
	}
	return b.Load(ctx)
}

func (l *LazyBackend) Append(ctx context.Context, e seen.Entry) error {
	b, err := l.get()
	if err != nil {
		return err
	}
	return b.Append(ctx, e)
}

func (l *LazyBackend) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.b == nil {
		return nil
	}
	return l.b.Close()
}
