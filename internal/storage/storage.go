package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/LJTian/SyndicateHub/internal/seen"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// PostedArticle 已成功发布的文章
type PostedArticle struct {
	ID       string         `gorm:"primaryKey;size:255" json:"id"`
	Title    string         `gorm:"size:512" json:"title"`
	URL      string         `gorm:"size:1024" json:"url"`
	Location string         `gorm:"size:1024" json:"location"` // 博客上的文章地址
	Labels   datatypes.JSON `gorm:"type:jsonb" json:"labels"`
	PostedAt time.Time      `gorm:"index" json:"postedAt"`

	CreatedAt time.Time `json:"createdAt"`
}

// PostgresBackend 用 PostgreSQL 保存发布记录
type PostgresBackend struct {
	DB *gorm.DB
}

func NewPostgresBackend(dsn string) (*PostgresBackend, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGormBackend(db)
}

// NewGormBackend 复用已打开的连接，并确保表结构存在
func NewGormBackend(db *gorm.DB) (*PostgresBackend, error) {
	if err := db.AutoMigrate(&PostedArticle{}); err != nil {
		return nil, fmt.Errorf("migrate posted_articles: %w", err)
	}
	return &PostgresBackend{DB: db}, nil
}

func (p *PostgresBackend) Name() string { return "postgres" }

func (p *PostgresBackend) Load(ctx context.Context) ([]string, error) {
	var ids []string
	err := p.DB.WithContext(ctx).
		Model(&PostedArticle{}).
		Order("posted_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Append 以 ID 为幂等键，已存在时忽略
func (p *PostgresBackend) Append(ctx context.Context, e seen.Entry) error {
	labels, err := json.Marshal(nonNil(e.Labels))
	if err != nil {
		return err
	}
	rec := &PostedArticle{
		ID:       e.ID,
		Title:    toValidUTF8(e.Title),
		URL:      e.URL,
		Location: e.Location,
		Labels:   datatypes.JSON(labels),
		PostedAt: e.PostedAt,
	}
	return p.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec).Error
}

// Recent 按发布时间倒序返回最近的记录
func (p *PostgresBackend) Recent(ctx context.Context, limit int) ([]PostedArticle, error) {
	if limit <= 0 || limit > 1000 {
		limit = 20
	}
	var list []PostedArticle
	err := p.DB.WithContext(ctx).Order("posted_at DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (p *PostgresBackend) Close() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// toValidUTF8 避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
