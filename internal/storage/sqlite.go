package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LJTian/SyndicateHub/internal/seen"
	_ "modernc.org/sqlite"
)

// SQLiteBackend 单文件数据库，适合单机部署
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// 串行写入
	db.SetMaxOpenConns(1)

	s := &SQLiteBackend{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteBackend) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS posted_articles (
			id        TEXT PRIMARY KEY,
			title     TEXT NOT NULL DEFAULT '',
			url       TEXT NOT NULL DEFAULT '',
			location  TEXT NOT NULL DEFAULT '',
			labels    TEXT NOT NULL DEFAULT '[]',
			posted_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_posted_articles_posted_at ON posted_articles(posted_at);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Name() string { return "sqlite" }

func (s *SQLiteBackend) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM posted_articles ORDER BY posted_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying posted ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning posted id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteBackend) Append(ctx context.Context, e seen.Entry) error {
	labels, err := json.Marshal(nonNil(e.Labels))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO posted_articles (id, title, url, location, labels, posted_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.URL, e.Location, string(labels), e.PostedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", e.ID, err)
	}
	return nil
}

// Location 查询某篇文章发布后的地址，不存在时返回空串
func (s *SQLiteBackend) Location(ctx context.Context, id string) (string, error) {
	var loc string
	err := s.db.QueryRowContext(ctx, `SELECT location FROM posted_articles WHERE id = ?`, id).Scan(&loc)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return loc, err
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
