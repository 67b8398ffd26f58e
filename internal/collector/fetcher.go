package collector

import (
	"context"
	"time"
)

// Article 统一采集后的文章结构，采集后不再修改
type Article struct {
	ID          string
	Title       string
	Author      string
	Body        string
	Image       string
	URL         string
	PublishedAt time.Time
	Category    string
}

// Source 抽象一个文章来源，结果按发布时间从新到旧
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Article, error)
}

// Defaults 缺失字段的兜底值
type Defaults struct {
	Author   string
	Category string
}

func (d Defaults) apply(a *Article) {
	if a.Author == "" {
		a.Author = d.Author
	}
	if a.Category == "" {
		a.Category = d.Category
	}
}
