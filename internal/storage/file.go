package storage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/LJTian/SyndicateHub/internal/seen"
)

// FileBackend 纯文本追加文件，每行一个文章 ID
type FileBackend struct {
	Path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

func (f *FileBackend) Name() string { return "file" }

// Load 文件不存在视为首次运行，返回空列表
func (f *FileBackend) Load(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}

	var ids []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", f.Path, err)
	}
	return ids, nil
}

// Append 单次 write 写入整行并 fsync，O_APPEND 保证多进程追加不交错
func (f *FileBackend) Append(ctx context.Context, e seen.Entry) error {
	if strings.ContainsAny(e.ID, "\r\n") {
		return fmt.Errorf("id %q contains a line break", e.ID)
	}

	fh, err := os.OpenFile(f.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Path, err)
	}
	if _, err := fh.WriteString(e.ID + "\n"); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	if err := fh.Sync(); err != nil {
		_ = fh.Close()
		return fmt.Errorf("sync %s: %w", f.Path, err)
	}
	return fh.Close()
}

func (f *FileBackend) Close() error { return nil }
